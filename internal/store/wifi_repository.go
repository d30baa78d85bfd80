package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WifiRepository defines the interface for setup-scan persistence.
type WifiRepository interface {
	SaveScan(ctx context.Context, setupID string, networks []WifiNetwork) ([]WifiNetwork, error)
	ListBySetup(ctx context.Context, setupID string) ([]WifiNetwork, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLiteWifiRepository implements WifiRepository using SQLite.
type SQLiteWifiRepository struct {
	db *sql.DB
}

// NewWifiRepository creates a new SQLite-backed wifi repository.
func NewWifiRepository(db *sql.DB) *SQLiteWifiRepository {
	return &SQLiteWifiRepository{db: db}
}

// SaveScan replaces the stored results for a setup session with the given
// networks. Repeated scans for the same session don't accumulate rows.
func (r *SQLiteWifiRepository) SaveScan(ctx context.Context, setupID string, networks []WifiNetwork) ([]WifiNetwork, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting scan transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM wifi_networks WHERE device_setup_id = ?", setupID); err != nil {
		return nil, fmt.Errorf("clearing previous scan: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	saved := make([]WifiNetwork, 0, len(networks))
	for _, n := range networks {
		n.DeviceSetupID = setupID
		n.CreatedAt = now

		result, err := tx.ExecContext(ctx,
			`INSERT INTO wifi_networks (device_setup_id, ssid, rssi, security, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			n.DeviceSetupID, n.SSID, n.RSSI, n.Security, now.Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("saving network %q: %w", n.SSID, err)
		}
		n.ID, _ = result.LastInsertId() //nolint:errcheck // always succeeds on SQLite
		saved = append(saved, n)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing scan: %w", err)
	}
	return saved, nil
}

// ListBySetup returns the scan results for one setup session, strongest
// signal first.
func (r *SQLiteWifiRepository) ListBySetup(ctx context.Context, setupID string) ([]WifiNetwork, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, device_setup_id, ssid, rssi, security, created_at FROM wifi_networks WHERE device_setup_id = ? ORDER BY rssi DESC",
		setupID)
	if err != nil {
		return nil, fmt.Errorf("listing networks: %w", err)
	}
	defer rows.Close()

	var networks []WifiNetwork
	for rows.Next() {
		var n WifiNetwork
		var createdAt string
		if err := rows.Scan(&n.ID, &n.DeviceSetupID, &n.SSID, &n.RSSI, &n.Security, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning network: %w", err)
		}
		n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		networks = append(networks, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating networks: %w", err)
	}

	if networks == nil {
		networks = []WifiNetwork{}
	}
	return networks, nil
}

// DeleteBefore removes scan results created before the cutoff.
// Returns the number of rows evicted.
func (r *SQLiteWifiRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM wifi_networks WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("evicting networks: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows, nil
}
