package main

import (
	"os"
	"testing"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/sensor/dirwatch"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	id := uuid.New().String()

	tests := []struct {
		name    string
		args    []string
		files   int
		wantErr bool
	}{
		{name: "add", args: []string{"add", "hello"}, files: 1},
		{name: "add with id", args: []string{"add", "-id", id, "hello"}, files: 1},
		{name: "update", args: []string{"update", id}, files: 1},
		{name: "remove", args: []string{"remove", id}, files: 1},
		{name: "no command", args: nil, wantErr: true},
		{name: "unknown command", args: []string{"scan"}, wantErr: true},
		{name: "add without content", args: []string{"add"}, wantErr: true},
		{name: "add bad id", args: []string{"add", "-id", "nope", "x"}, wantErr: true},
		{name: "remove bad id", args: []string{"remove", "nope"}, wantErr: true},
		{name: "update missing id", args: []string{"update"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			err := run(dirwatch.NewWriter(dir), tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, tt.files)
		})
	}
}
