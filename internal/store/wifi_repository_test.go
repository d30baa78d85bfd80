package store

import (
	"context"
	"testing"
	"time"
)

func sampleNetworks() []WifiNetwork {
	return []WifiNetwork{
		{SSID: "HomeNetwork_5G", RSSI: -45, Security: "WPA2"},
		{SSID: "NeighborWiFi", RSSI: -65, Security: "WPA2"},
		{SSID: "GuestNetwork", RSSI: -75, Security: "Open"},
	}
}

func TestWifiRepository_SaveScan(t *testing.T) {
	db := testDB(t)
	repo := NewWifiRepository(db)

	saved, err := repo.SaveScan(context.Background(), "setup-1", sampleNetworks())
	if err != nil {
		t.Fatalf("SaveScan() error = %v", err)
	}
	if len(saved) != 3 {
		t.Fatalf("SaveScan() returned %d networks, want 3", len(saved))
	}
	for _, n := range saved {
		if n.ID == 0 {
			t.Errorf("SaveScan() network %q missing generated ID", n.SSID)
		}
		if n.DeviceSetupID != "setup-1" {
			t.Errorf("SaveScan() network %q setupID = %q, want setup-1", n.SSID, n.DeviceSetupID)
		}
	}
}

func TestWifiRepository_SaveScan_ReplacesPrevious(t *testing.T) {
	db := testDB(t)
	repo := NewWifiRepository(db)

	if _, err := repo.SaveScan(context.Background(), "setup-1", sampleNetworks()); err != nil {
		t.Fatalf("first SaveScan() error = %v", err)
	}

	// Second scan for the same session replaces, not accumulates
	rescan := []WifiNetwork{{SSID: "CoffeeShop_WiFi", RSSI: -80, Security: "WPA2"}}
	if _, err := repo.SaveScan(context.Background(), "setup-1", rescan); err != nil {
		t.Fatalf("second SaveScan() error = %v", err)
	}

	networks, err := repo.ListBySetup(context.Background(), "setup-1")
	if err != nil {
		t.Fatalf("ListBySetup() error = %v", err)
	}
	if len(networks) != 1 {
		t.Fatalf("ListBySetup() returned %d networks, want 1", len(networks))
	}
	if networks[0].SSID != "CoffeeShop_WiFi" {
		t.Errorf("ListBySetup() ssid = %q, want CoffeeShop_WiFi", networks[0].SSID)
	}
}

func TestWifiRepository_ListBySetup_SortedByStrength(t *testing.T) {
	db := testDB(t)
	repo := NewWifiRepository(db)

	if _, err := repo.SaveScan(context.Background(), "setup-1", sampleNetworks()); err != nil {
		t.Fatalf("SaveScan() error = %v", err)
	}

	networks, err := repo.ListBySetup(context.Background(), "setup-1")
	if err != nil {
		t.Fatalf("ListBySetup() error = %v", err)
	}
	if len(networks) != 3 {
		t.Fatalf("ListBySetup() returned %d networks, want 3", len(networks))
	}
	for i := 1; i < len(networks); i++ {
		if networks[i-1].RSSI < networks[i].RSSI {
			t.Errorf("networks not sorted by signal strength: %d before %d",
				networks[i-1].RSSI, networks[i].RSSI)
		}
	}
}

func TestWifiRepository_ListBySetup_Scoped(t *testing.T) {
	db := testDB(t)
	repo := NewWifiRepository(db)

	if _, err := repo.SaveScan(context.Background(), "setup-1", sampleNetworks()); err != nil {
		t.Fatalf("SaveScan() error = %v", err)
	}
	if _, err := repo.SaveScan(context.Background(), "setup-2", sampleNetworks()[:1]); err != nil {
		t.Fatalf("SaveScan() error = %v", err)
	}

	networks, err := repo.ListBySetup(context.Background(), "setup-2")
	if err != nil {
		t.Fatalf("ListBySetup() error = %v", err)
	}
	if len(networks) != 1 {
		t.Errorf("ListBySetup() returned %d networks, want 1 (sessions must not leak)", len(networks))
	}
}

func TestWifiRepository_ListBySetup_Empty(t *testing.T) {
	db := testDB(t)
	repo := NewWifiRepository(db)

	networks, err := repo.ListBySetup(context.Background(), "setup-missing")
	if err != nil {
		t.Fatalf("ListBySetup() error = %v", err)
	}
	if networks == nil {
		t.Error("ListBySetup() should return empty slice, not nil")
	}
}

func TestWifiRepository_DeleteBefore(t *testing.T) {
	db := testDB(t)
	repo := NewWifiRepository(db)

	if _, err := repo.SaveScan(context.Background(), "setup-1", sampleNetworks()); err != nil {
		t.Fatalf("SaveScan() error = %v", err)
	}

	// Cutoff before the rows were created evicts nothing
	evicted, err := repo.DeleteBefore(context.Background(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if evicted != 0 {
		t.Errorf("DeleteBefore() evicted %d rows, want 0", evicted)
	}

	// Cutoff in the future evicts everything
	evicted, err = repo.DeleteBefore(context.Background(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if evicted != 3 {
		t.Errorf("DeleteBefore() evicted %d rows, want 3", evicted)
	}

	networks, err := repo.ListBySetup(context.Background(), "setup-1")
	if err != nil {
		t.Fatalf("ListBySetup() error = %v", err)
	}
	if len(networks) != 0 {
		t.Errorf("expected all networks evicted, got %d", len(networks))
	}
}
