package handlers

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestOriginPolicy(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "exact match", allowed: []string{"http://localhost:3000"}, origin: "http://localhost:3000", want: true},
		{name: "case insensitive", allowed: []string{"HTTP://LocalHost:3000"}, origin: "http://localhost:3000", want: true},
		{name: "other port", allowed: []string{"http://localhost:3000"}, origin: "http://localhost:4000", want: false},
		{name: "missing origin", allowed: []string{"http://localhost:3000"}, origin: "", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anything.example.com", want: true},
		{name: "wildcard without origin", allowed: []string{"*"}, origin: "", want: true},
		{name: "invalid entry ignored", allowed: []string{"not-an-origin"}, origin: "not-an-origin", want: false},
		{name: "empty list", allowed: nil, origin: "http://localhost:3000", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewOriginPolicy(tt.allowed, log)
			require.Equal(t, tt.want, policy.Allowed(tt.origin))
		})
	}
}
