package store

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsoptimizer/internal/types"
)

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := Migrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, int64(1), migs[0].Version)
	assert.Equal(t, "create_optimization_sessions", migs[0].Name)
	assert.Contains(t, migs[0].SQL, "optimization_sessions")
	assert.Equal(t, int64(2), migs[1].Version)
	assert.Len(t, migs[1].Checksum, 64)
}

func TestLoadMigrations(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		want    []int64
		wantErr string
	}{
		{
			name: "sorted by version, other files ignored",
			files: fstest.MapFS{
				"m/V10__later.sql":   {Data: []byte("SELECT 10;")},
				"m/V2__second.sql":   {Data: []byte("SELECT 2;")},
				"m/README.md":        {Data: []byte("notes")},
				"m/2__no_prefix.sql": {Data: []byte("SELECT 0;")},
			},
			want: []int64{2, 10},
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"m/V1__a.sql": {Data: []byte("SELECT 1;")},
				"m/V1__b.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "duplicate migration version",
		},
		{
			name:    "empty file",
			files:   fstest.MapFS{"m/V1__empty.sql": {Data: []byte("  \n")}},
			wantErr: "empty migration file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migs, err := loadMigrations(tt.files, "m")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			var got []int64
			for _, m := range migs {
				got = append(got, m.Version)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONColumn(t *testing.T) {
	var nilScore *types.ATSScore
	v, err := jsonColumn(nilScore)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = jsonColumn(&types.GapAnalysis{Counts: types.GapCounts{High: 1}})
	require.NoError(t, err)
	assert.Contains(t, string(v.([]byte)), `"high":1`)
}
