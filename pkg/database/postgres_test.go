package database

import (
	"testing"

	"tg-market/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "market",
		DBPassword: "pw",
		DBName:     "tgmarket",
		DBSSLMode:  "disable",
	}

	assert.Equal(t, "host=db user=market password=pw dbname=tgmarket port=5433 sslmode=disable", DSN(cfg))
}
