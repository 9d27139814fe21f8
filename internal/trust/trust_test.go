package trust

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGetAutoInitializes(t *testing.T) {
	m, err := New(nil, DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	agent := uuid.New()
	score := m.Get(agent)
	if score.Value != 0.5 {
		t.Errorf("expected seed value 0.5, got %f", score.Value)
	}
	if score.Confidence != 0 {
		t.Errorf("expected zero confidence for unknown agent, got %f", score.Confidence)
	}
}

func TestInitializeIsNoopWhenAlreadyPresent(t *testing.T) {
	m, _ := New(nil, DefaultConfig())
	agent := uuid.New()

	if err := m.Initialize(agent, 0.8); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := m.Initialize(agent, 0.1); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}

	score := m.Get(agent)
	if score.Value != 0.8 {
		t.Errorf("Initialize should be a no-op on existing agent, got value %f", score.Value)
	}
}

func TestUpdateSuccessIncreasesValue(t *testing.T) {
	m, _ := New(nil, DefaultConfig())
	agent := uuid.New()
	m.Initialize(agent, 0.5)

	updated, err := m.Update(agent, true, false)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Value <= 0.5 {
		t.Errorf("expected value to increase after success, got %f", updated.Value)
	}
	if updated.SampleCount != 1 {
		t.Errorf("expected sample count 1, got %d", updated.SampleCount)
	}
}

func TestUpdateFailureDecreasesValue(t *testing.T) {
	m, _ := New(nil, DefaultConfig())
	agent := uuid.New()
	m.Initialize(agent, 0.5)

	updated, err := m.Update(agent, false, false)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Value >= 0.5 {
		t.Errorf("expected value to decrease after failure, got %f", updated.Value)
	}
}

func TestUpdateVerifiedDoublesWeight(t *testing.T) {
	m, _ := New(nil, DefaultConfig())
	unverifiedAgent := uuid.New()
	verifiedAgent := uuid.New()
	m.Initialize(unverifiedAgent, 0.5)
	m.Initialize(verifiedAgent, 0.5)

	unverified, _ := m.Update(unverifiedAgent, true, false)
	verified, _ := m.Update(verifiedAgent, true, true)

	unverifiedDelta := unverified.Value - 0.5
	verifiedDelta := verified.Value - 0.5
	if verifiedDelta <= unverifiedDelta {
		t.Errorf("expected verified delta %f to exceed unverified delta %f", verifiedDelta, unverifiedDelta)
	}
}

func TestUpdateClampsToUnitInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = 1.0
	m, _ := New(nil, cfg)
	agent := uuid.New()
	m.Initialize(agent, 0.99)

	updated, err := m.Update(agent, true, true)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Value > 1.0 {
		t.Errorf("expected value clamped to 1.0, got %f", updated.Value)
	}
}

func TestCheckThresholds(t *testing.T) {
	m, _ := New(nil, DefaultConfig())
	agent := uuid.New()
	m.Initialize(agent, 0.9)

	ok, score := m.Check(agent, OpCritical)
	if !ok {
		t.Errorf("expected agent at 0.9 to pass OpCritical threshold, score=%v", score)
	}

	ok, _ = m.Check(agent, OpDelegation)
	if !ok {
		t.Errorf("expected agent at 0.9 to pass OpDelegation threshold")
	}

	lowAgent := uuid.New()
	m.Initialize(lowAgent, 0.2)
	ok, _ = m.Check(lowAgent, OpCritical)
	if ok {
		t.Error("expected agent at 0.2 to fail OpCritical threshold")
	}
}

func TestTrustedAgents(t *testing.T) {
	m, _ := New(nil, DefaultConfig())
	high := uuid.New()
	low := uuid.New()
	m.Initialize(high, 0.9)
	m.Initialize(low, 0.2)

	trusted := m.TrustedAgents(0.5)
	if len(trusted) != 1 || trusted[0] != high {
		t.Errorf("expected only %s in trusted set, got %v", high, trusted)
	}
}

func TestDecayDriftsTowardSeed(t *testing.T) {
	m, _ := New(nil, DefaultConfig())
	agent := uuid.New()
	m.Initialize(agent, 0.5)
	m.Update(agent, true, true)

	afterUpdate := m.Get(agent)
	if err := m.Decay(afterUpdate.LastUpdate.Add(1000 * time.Hour)); err != nil {
		t.Fatalf("Decay failed: %v", err)
	}

	decayed := m.Get(agent)
	if decayed.Value >= afterUpdate.Value {
		t.Errorf("expected decay to pull value back toward seed 0.5, before=%f after=%f", afterUpdate.Value, decayed.Value)
	}
}

func TestOnSignificantChangeFires(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = 0.5
	m, _ := New(nil, cfg)
	agent := uuid.New()
	m.Initialize(agent, 0.5)

	fired := false
	m.OnSignificantChange(func(a uuid.UUID, delta float64) {
		if a == agent {
			fired = true
		}
	})

	if _, err := m.Update(agent, true, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !fired {
		t.Error("expected significant-change callback to fire for large delta")
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trust.db")

	store1, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	m1, _ := New(store1, DefaultConfig())
	agent := uuid.New()
	m1.Initialize(agent, 0.7)
	m1.Update(agent, true, true)
	want := m1.Get(agent)
	store1.Close()

	store2, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("reopening bolt store failed: %v", err)
	}
	defer store2.Close()
	m2, err := New(store2, DefaultConfig())
	if err != nil {
		t.Fatalf("New with reopened store failed: %v", err)
	}
	got := m2.Get(agent)
	if got.Value != want.Value {
		t.Errorf("expected persisted value %f, got %f", want.Value, got.Value)
	}
	if got.SampleCount != want.SampleCount {
		t.Errorf("expected persisted sample count %d, got %d", want.SampleCount, got.SampleCount)
	}
}

func TestBoltStoreBackupAndRestore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "trust.db")
	backupPath := filepath.Join(dir, "trust.backup.json")

	store, err := OpenBoltStore(dbPath)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	defer store.Close()

	m, _ := New(store, DefaultConfig())
	agent := uuid.New()
	m.Initialize(agent, 0.6)
	m.Update(agent, true, false)

	if err := m.Backup(backupPath); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	// Corrupt the live value, then restore and confirm it reverts.
	m.Update(agent, false, false)
	m.Update(agent, false, false)
	beforeRestore := m.Get(agent)

	if err := m.Restore(backupPath); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	afterRestore := m.Get(agent)
	if afterRestore.Value == beforeRestore.Value {
		t.Error("expected Restore to change in-memory scores back to the backup snapshot")
	}
}

func TestRestoreRejectsCorruptedChecksum(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "trust.db")
	backupPath := filepath.Join(dir, "trust.backup.json")

	store, err := OpenBoltStore(dbPath)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	defer store.Close()

	m, _ := New(store, DefaultConfig())
	agent := uuid.New()
	m.Initialize(agent, 0.5)
	if err := m.Backup(backupPath); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	// Corrupt one of the recorded score values without touching the
	// checksum field, so the recomputed checksum no longer matches.
	raw, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	tampered := strings.Replace(string(raw), "0.5", "0.99", 1)
	if err := os.WriteFile(backupPath, []byte(tampered), 0600); err != nil {
		t.Fatalf("writing tampered backup: %v", err)
	}

	if err := m.Restore(backupPath); err == nil {
		t.Error("expected Restore to reject a tampered backup")
	}
}

func TestRunPeriodicBackupStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "trust.db")
	backupPath := filepath.Join(dir, "trust.backup.json")

	store, err := OpenBoltStore(dbPath)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	defer store.Close()

	cfg := DefaultConfig()
	cfg.BackupInterval = 5 * time.Millisecond
	m, _ := New(store, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunPeriodicBackup(ctx, backupPath)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodicBackup did not stop after context cancellation")
	}
}
