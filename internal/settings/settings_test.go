package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/dabifac/internal/database/testutil"
	"github.com/charlesng35/dabifac/internal/models"
)

func TestCaptureRecordsMissingFieldsAsNil(t *testing.T) {
	surface := NewMemorySurface(map[string]string{
		"dabimasFactor": "f",
		"dabimasMemo":   "",
		"unrelated":     "x",
	})

	data := Capture(surface, DefaultFields)
	require.Len(t, data, len(DefaultFields))

	factor, ok := data.Value("dabimasFactor")
	require.True(t, ok)
	require.Equal(t, "f", factor)

	memo, ok := data.Value("dabimasMemo")
	require.True(t, ok)
	require.Equal(t, "", memo)

	require.Contains(t, data, "dabimasMemoStallion")
	require.Nil(t, data["dabimasMemoStallion"])
	require.NotContains(t, data, "unrelated")
}

func TestApplySkipsNilAndEmptyValues(t *testing.T) {
	surface := NewMemorySurface(map[string]string{
		"dabimasMemo":         "keep",
		"dabimasMemoStallion": "keep too",
	})
	stallion := ""
	factor := "restored"
	data := models.ConfigData{
		"dabimasFactor":       &factor,
		"dabimasMemo":         nil,
		"dabimasMemoStallion": &stallion,
	}

	applied := Apply(surface, data, DefaultFields)
	require.Equal(t, []string{"dabimasFactor"}, applied)
	require.Equal(t, map[string]string{
		"dabimasFactor":       "restored",
		"dabimasMemo":         "keep",
		"dabimasMemoStallion": "keep too",
	}, surface.Values())
}

func TestApplyWithoutFieldListUsesStoredKeys(t *testing.T) {
	surface := NewMemorySurface(nil)
	v := "1"

	applied := Apply(surface, models.ConfigData{"custom": &v}, nil)
	require.Equal(t, []string{"custom"}, applied)
	got, ok := surface.Get("custom")
	require.True(t, ok)
	require.Equal(t, "1", got)
}

func TestLoadAndPersistRoundTrip(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	surface := NewMemorySurface(map[string]string{
		"dabimasFactor": "f",
		"dabimasMemo":   "m",
		"ignored":       "x",
	})
	require.NoError(t, Persist(ctx, db, surface, DefaultFields))

	loaded, err := Load(ctx, db, DefaultFields)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"dabimasFactor": "f", "dabimasMemo": "m"}, loaded.Values())

	loaded.Set("dabimasMemo", "m2")
	require.NoError(t, Persist(ctx, db, loaded, DefaultFields))

	reloaded, err := Load(ctx, db, DefaultFields)
	require.NoError(t, err)
	memo, ok := reloaded.Get("dabimasMemo")
	require.True(t, ok)
	require.Equal(t, "m2", memo)
}

func TestLoadRequiresDatabase(t *testing.T) {
	_, err := Load(context.Background(), nil, DefaultFields)
	require.Error(t, err)
	require.Error(t, Persist(context.Background(), nil, NewMemorySurface(map[string]string{"dabimasMemo": "x"}), DefaultFields))
}
