package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

func TestTokenRepository(t *testing.T) {
	t.Run("PutAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		ella := createUser(t, db, "ella")

		record := models.TokenRecord{
			UserID:       ella.ID(),
			Provider:     models.ProviderSpotify,
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Unix() + 3600,
		}
		if err := repo.Put(record); err != nil {
			t.Fatalf("failed to store token: %v", err)
		}

		got, err := repo.Get(ella.ID(), models.ProviderSpotify)
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.AccessToken != "access-1" || got.RefreshToken != "refresh-1" {
			t.Errorf("unexpected record %+v", got)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		ella := createUser(t, db, "ella")

		if _, err := repo.Get(ella.ID(), models.ProviderSpotify); !errors.Is(err, shared.ErrNoConnection) {
			t.Errorf("expected ErrNoConnection, got %v", err)
		}
	})

	t.Run("PutUpserts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		ella := createUser(t, db, "ella")

		first := models.TokenRecord{
			UserID: ella.ID(), Provider: models.ProviderSpotify,
			AccessToken: "access-1", Expiry: 100,
		}
		second := models.TokenRecord{
			UserID: ella.ID(), Provider: models.ProviderSpotify,
			AccessToken: "access-2", Expiry: 200,
		}
		if err := repo.Put(first); err != nil {
			t.Fatalf("failed to store token: %v", err)
		}
		if err := repo.Put(second); err != nil {
			t.Fatalf("failed to upsert token: %v", err)
		}

		got, err := repo.Get(ella.ID(), models.ProviderSpotify)
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.AccessToken != "access-2" || got.Expiry != 200 {
			t.Errorf("expected upserted record, got %+v", got)
		}
	})

	t.Run("ReplaceCompareAndSwap", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		ella := createUser(t, db, "ella")

		if err := repo.Put(models.TokenRecord{
			UserID: ella.ID(), Provider: models.ProviderSpotify,
			AccessToken: "old", RefreshToken: "refresh", Expiry: 100,
		}); err != nil {
			t.Fatalf("failed to store token: %v", err)
		}

		swapped, err := repo.Replace("old", models.TokenRecord{
			UserID: ella.ID(), Provider: models.ProviderSpotify,
			AccessToken: "new", RefreshToken: "refresh", Expiry: 200,
		})
		if err != nil {
			t.Fatalf("failed to replace token: %v", err)
		}
		if !swapped {
			t.Fatal("expected swap to land")
		}

		// A second swap against the stale access token loses.
		swapped, err = repo.Replace("old", models.TokenRecord{
			UserID: ella.ID(), Provider: models.ProviderSpotify,
			AccessToken: "other", Expiry: 300,
		})
		if err != nil {
			t.Fatalf("failed to replace token: %v", err)
		}
		if swapped {
			t.Error("swap against stale token must not land")
		}

		got, err := repo.Get(ella.ID(), models.ProviderSpotify)
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.AccessToken != "new" {
			t.Errorf("expected winning record to survive, got %s", got.AccessToken)
		}
	})

	t.Run("DeleteMissingIsNoop", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		ella := createUser(t, db, "ella")

		if err := repo.Delete(ella.ID(), models.ProviderSpotify); err != nil {
			t.Errorf("deleting a missing record should be a no-op, got %v", err)
		}
	})

	t.Run("TakeAttemptConsumesOnce", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		ella := createUser(t, db, "ella")

		attempt := models.AuthAttempt{
			State:     "state-abc",
			UserID:    ella.ID(),
			Provider:  models.ProviderSpotify,
			Verifier:  "verifier-xyz",
			CreatedAt: time.Now(),
		}
		if err := repo.SaveAttempt(attempt); err != nil {
			t.Fatalf("failed to save attempt: %v", err)
		}

		got, err := repo.TakeAttempt("state-abc")
		if err != nil {
			t.Fatalf("failed to take attempt: %v", err)
		}
		if got.Verifier != "verifier-xyz" || got.UserID != ella.ID() {
			t.Errorf("unexpected attempt %+v", got)
		}

		if _, err := repo.TakeAttempt("state-abc"); !errors.Is(err, shared.ErrStaleExchange) {
			t.Errorf("expected ErrStaleExchange on replay, got %v", err)
		}
	})

	t.Run("SaveAttemptRequiresStateAndVerifier", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)

		if err := repo.SaveAttempt(models.AuthAttempt{State: "s"}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}
