package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"retailpos/m/domain"
)

// LoadProducts ingests the CSV into the products table, ignoring duplicates.
// Expected columns: itemid,name,category,qty,price with a header row.
func LoadProducts(db *sqlx.DB, csvPath string, logger zerolog.Logger) {
	file, err := os.Open(csvPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", csvPath).Msg("product catalog not loaded")
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		logger.Warn().Err(err).Msg("unable to read product header")
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		logger.Warn().Err(err).Msg("unable to start product seed transaction")
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO products (item_id, name, category, quantity, price) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		logger.Warn().Err(err).Msg("unable to prepare product insert")
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("unable to read product row")
			continue
		}
		if len(record) < 5 {
			continue
		}
		itemID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil || itemID <= 0 {
			continue
		}
		name := strings.TrimSpace(record[1])
		if name == "" {
			continue
		}
		category := strings.TrimSpace(record[2])
		qty, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if err != nil || qty < 0 {
			continue
		}
		price := strings.TrimSpace(record[4])

		if _, err := stmt.Exec(itemID, name, category, qty, price); err != nil {
			logger.Warn().Err(err).Str("name", name).Msg("unable to insert product")
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Warn().Err(err).Msg("unable to commit product seed")
	} else {
		logger.Info().Int("rows", rows).Msg("seeded product catalog")
	}
}

// EnsureAdmin creates a default manager account when the accounts table is
// empty, so a fresh install has someone who can register operators.
func EnsureAdmin(db *sqlx.DB, password string, logger zerolog.Logger) {
	var count int64
	if err := db.Get(&count, `SELECT COUNT(*) FROM accounts`); err != nil {
		logger.Warn().Err(err).Msg("unable to inspect accounts")
		return
	}
	if count > 0 {
		return
	}
	if password == "" {
		password = "admin123"
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Warn().Err(err).Msg("unable to hash admin password")
		return
	}
	if _, err := db.Exec(`INSERT INTO accounts (username, password, role) VALUES (?, ?, ?)`, "admin", hashed, domain.RoleManager); err != nil {
		logger.Warn().Err(err).Msg("unable to create admin account")
		return
	}
	logger.Info().Str("username", "admin").Msg("created default manager account")
}
