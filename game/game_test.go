package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	return Settings{
		Rounds:     3,
		Categories: []string{"Name", "Animal", "City"},
		RoundTime:  60,
		RatingTime: 30,
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"valid", func(s *Settings) {}, ""},
		{"zero rounds", func(s *Settings) { s.Rounds = 0 }, "rounds"},
		{"negative rounds", func(s *Settings) { s.Rounds = -1 }, "rounds"},
		{"no categories", func(s *Settings) { s.Categories = nil }, "categories"},
		{"too many categories", func(s *Settings) {
			s.Categories = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
		}, "categories"},
		{"empty category", func(s *Settings) { s.Categories = []string{"Animal", ""} }, "categories"},
		{"duplicate category", func(s *Settings) { s.Categories = []string{"Animal", "animal"} }, "categories"},
		{"round time too short", func(s *Settings) { s.RoundTime = 5 }, "roundTime"},
		{"rating time too short", func(s *Settings) { s.RatingTime = 5 }, "ratingTime"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tc.mutate(&s)
			err := s.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestSettingsNormalize(t *testing.T) {
	t.Parallel()

	s := Settings{
		Rounds:     2,
		Categories: []string{" Animal ", "City"},
		RoundTime:  60,
	}
	s.Normalize()

	assert.Equal(t, []string{"Animal", "City"}, s.Categories)
	assert.Equal(t, DefaultRatingSeconds, s.RatingTime)
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateName("Ana"))
	assert.NoError(t, ValidateName("ab"))
	assert.NoError(t, ValidateName("fifteen chars.."))
	assert.Error(t, ValidateName("a"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("sixteen chars..."))
}

func TestStartable(t *testing.T) {
	t.Parallel()

	host := Player{ID: "h", IsHost: true}
	ready := Player{ID: "p1", IsReady: true}
	notReady := Player{ID: "p2"}

	assert.False(t, Startable([]Player{host}), "host alone cannot start")
	assert.False(t, Startable([]Player{host, notReady}))
	assert.False(t, Startable([]Player{host, ready, notReady}))
	assert.True(t, Startable([]Player{host, ready}))
	assert.True(t, Startable([]Player{host, ready, {ID: "p3", IsReady: true}}))
}

func TestAllNonHostReady(t *testing.T) {
	t.Parallel()

	host := Player{ID: "h", IsHost: true}

	assert.True(t, AllNonHostReady([]Player{host}), "vacuously true with no other players")
	assert.True(t, AllNonHostReady([]Player{host, {ID: "p1", IsReady: true}}))
	assert.False(t, AllNonHostReady([]Player{host, {ID: "p1"}}))
}

func TestRoundComplete(t *testing.T) {
	t.Parallel()

	rd := RoundData{
		"p1": {PlayerID: "p1"},
		"p2": {PlayerID: "p2"},
	}

	assert.True(t, RoundComplete(rd, []string{"p1", "p2"}))
	assert.True(t, RoundComplete(rd, nil))
	assert.False(t, RoundComplete(rd, []string{"p1", "p2", "p3"}))
}
