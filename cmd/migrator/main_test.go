package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMigrateURL(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@localhost:5432/shop", "pgx5://u:p@localhost:5432/shop"},
		{"postgresql://u@db/shop?sslmode=disable", "pgx5://u@db/shop?sslmode=disable"},
		{"pgx5://u@db/shop", "pgx5://u@db/shop"},
		{"u:p@localhost/shop", "pgx5://u:p@localhost/shop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toMigrateURL(tt.dsn))
	}
}
