package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"pantry-rest-api/internal/model"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLPantryRepository implements PantryRepository and UserRepository using
// MySQL. Unlike the SQLite backend it serves concurrent writers, so the
// decrement path locks the batch row (SELECT ... FOR UPDATE) for the
// duration of its transaction: two concurrent consumers cannot both succeed
// against a quantity that only exists once.
type MySQLPantryRepository struct {
	db *sql.DB
}

// NewMySQLPantryRepository creates a MySQL pantry repository.
// dsn must include parseTime=true so DATE columns scan as time.Time.
func NewMySQLPantryRepository(dsn string) (*MySQLPantryRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLPantryRepository] Initialized")
	return &MySQLPantryRepository{db: db}, nil
}

func createMySQLTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			category_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			item_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			category_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			barcode VARCHAR(64),
			UNIQUE KEY uniq_user_name (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS batches (
			batch_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			item_id BIGINT NOT NULL,
			purchase_date DATE,
			expiry_date DATE,
			initial_quantity DOUBLE NOT NULL,
			remaining_quantity DOUBLE NOT NULL,
			unit VARCHAR(32) NOT NULL,
			location VARCHAR(255),
			KEY idx_batches_item (item_id),
			KEY idx_batches_expiry (expiry_date)
		)`,
		`CREATE TABLE IF NOT EXISTS ledger (
			entry_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			batch_id BIGINT NOT NULL,
			transaction_type VARCHAR(16) NOT NULL,
			quantity_changed DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_ledger_batch (batch_id)
		)`,
		`CREATE TABLE IF NOT EXISTS restock_alerts (
			alert_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			item_id BIGINT NOT NULL UNIQUE,
			min_quantity DOUBLE NOT NULL,
			alert_enabled TINYINT(1) NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS recipes (
			recipe_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS recipe_ingredients (
			recipe_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			quantity_needed DOUBLE NOT NULL,
			unit VARCHAR(32) NOT NULL,
			PRIMARY KEY (recipe_id, item_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func mysqlDate(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	d := t.Time
	return &d
}

// GetItemByName finds an item by (name, user).
func (r *MySQLPantryRepository) GetItemByName(ctx context.Context, userID int64, name string) (*model.Item, error) {
	query := `SELECT item_id, user_id, category_id, name, barcode FROM items WHERE name = ? AND user_id = ?`

	var item model.Item
	var barcode sql.NullString
	err := r.db.QueryRowContext(ctx, query, name, userID).Scan(
		&item.ID, &item.UserID, &item.CategoryID, &item.Name, &barcode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if barcode.Valid {
		item.Barcode = &barcode.String
	}
	return &item, nil
}

// CreateItem creates an item owned by the user.
func (r *MySQLPantryRepository) CreateItem(ctx context.Context, userID, categoryID int64, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO items (user_id, category_id, name) VALUES (?, ?, ?)`,
		userID, categoryID, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create item: %w", err)
	}
	return res.LastInsertId()
}

// GetItem finds an item by id.
func (r *MySQLPantryRepository) GetItem(ctx context.Context, itemID int64) (*model.Item, error) {
	var item model.Item
	var barcode sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT item_id, user_id, category_id, name, barcode FROM items WHERE item_id = ?`, itemID).
		Scan(&item.ID, &item.UserID, &item.CategoryID, &item.Name, &barcode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if barcode.Valid {
		item.Barcode = &barcode.String
	}
	return &item, nil
}

// ListItems returns all items owned by the user.
func (r *MySQLPantryRepository) ListItems(ctx context.Context, userID int64) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, user_id, category_id, name, barcode FROM items WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var barcode sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.CategoryID, &item.Name, &barcode); err != nil {
			return nil, err
		}
		if barcode.Valid {
			item.Barcode = &barcode.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListCategories returns all categories.
func (r *MySQLPantryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, name FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// ListBatches returns the item's batches in FIFO-by-expiry order.
func (r *MySQLPantryRepository) ListBatches(ctx context.Context, itemID int64) ([]model.Batch, error) {
	query := `
		SELECT batch_id, item_id, purchase_date, expiry_date, initial_quantity, remaining_quantity, unit, location
		FROM batches
		WHERE item_id = ?
		ORDER BY expiry_date IS NULL, expiry_date ASC, purchase_date IS NULL, purchase_date ASC, batch_id ASC`

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		b, err := scanMySQLBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

func scanMySQLBatch(row rowScanner) (*model.Batch, error) {
	var b model.Batch
	var purchase, expiry sql.NullTime
	var location sql.NullString
	if err := row.Scan(&b.ID, &b.ItemID, &purchase, &expiry,
		&b.InitialQuantity, &b.RemainingQuantity, &b.Unit, &location); err != nil {
		return nil, err
	}
	b.PurchaseDate = mysqlDate(purchase)
	b.ExpiryDate = mysqlDate(expiry)
	if location.Valid {
		b.Location = &location.String
	}
	return &b, nil
}

// GetBatch re-reads a single batch.
func (r *MySQLPantryRepository) GetBatch(ctx context.Context, batchID int64) (*model.Batch, error) {
	query := `
		SELECT batch_id, item_id, purchase_date, expiry_date, initial_quantity, remaining_quantity, unit, location
		FROM batches WHERE batch_id = ?`

	b, err := scanMySQLBatch(r.db.QueryRowContext(ctx, query, batchID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return b, nil
}

// CreateBatch inserts a batch and its add ledger entry in one transaction.
func (r *MySQLPantryRepository) CreateBatch(ctx context.Context, itemID int64, nb model.NewBatch) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO batches (item_id, purchase_date, expiry_date, initial_quantity, remaining_quantity, unit, location)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		itemID, nb.PurchaseDate, nb.ExpiryDate, nb.Quantity, nb.Quantity, nb.Unit, nb.Location)
	if err != nil {
		return 0, fmt.Errorf("failed to create batch: %w", err)
	}

	batchID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger (batch_id, transaction_type, quantity_changed) VALUES (?, ?, ?)`,
		batchID, model.TxAdd, nb.Quantity)
	if err != nil {
		return 0, fmt.Errorf("failed to append add entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return batchID, nil
}

// ConsumeFromBatch locks the batch row, decrements it and logs the consume
// entry in one transaction. The decrement is capped at the locked row's
// remaining quantity; returns the quantity actually consumed and the new
// remaining.
func (r *MySQLPantryRepository) ConsumeFromBatch(ctx context.Context, batchID int64, qty float64) (float64, float64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Row lock held until commit; concurrent consumers of the same batch
	// serialize here.
	var remaining float64
	err = tx.QueryRowContext(ctx,
		`SELECT remaining_quantity FROM batches WHERE batch_id = ? FOR UPDATE`, batchID).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, ErrBatchNotFound
		}
		return 0, 0, fmt.Errorf("failed to read batch: %w", err)
	}

	// Cap at the locked quantity. The caller's qty may be stale; remaining
	// never goes below zero and the ledger never records more than existed.
	consumed := qty
	if consumed > remaining {
		consumed = remaining
	}
	if consumed <= 0 {
		return 0, remaining, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE batches SET remaining_quantity = remaining_quantity - ? WHERE batch_id = ?`,
		consumed, batchID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decrement batch: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger (batch_id, transaction_type, quantity_changed) VALUES (?, ?, ?)`,
		batchID, model.TxConsume, consumed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to append consume entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return consumed, remaining - consumed, nil
}

// RemoveBatch logs a remove entry for the quantity the locked row holds at
// removal time, then deletes the batch and its ledger history, all in one
// transaction. A no-op if the batch is already gone.
func (r *MySQLPantryRepository) RemoveBatch(ctx context.Context, batchID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var remaining float64
	err = tx.QueryRowContext(ctx,
		`SELECT remaining_quantity FROM batches WHERE batch_id = ? FOR UPDATE`, batchID).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("failed to read batch: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger (batch_id, transaction_type, quantity_changed) VALUES (?, ?, ?)`,
		batchID, model.TxRemove, remaining)
	if err != nil {
		return fmt.Errorf("failed to append remove entry: %w", err)
	}

	if err := purgeMySQLBatch(ctx, tx, batchID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteBatchAndLedger deletes a batch and its ledger rows. Idempotent.
func (r *MySQLPantryRepository) DeleteBatchAndLedger(ctx context.Context, batchID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := purgeMySQLBatch(ctx, tx, batchID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func purgeMySQLBatch(ctx context.Context, tx *sql.Tx, batchID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger WHERE batch_id = ?`, batchID); err != nil {
		return fmt.Errorf("failed to purge ledger: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE batch_id = ?`, batchID); err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	return nil
}

// TotalRemaining sums remaining quantity across the item's batches.
func (r *MySQLPantryRepository) TotalRemaining(ctx context.Context, itemID int64) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(remaining_quantity), 0) FROM batches WHERE item_id = ?`, itemID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum remaining: %w", err)
	}
	return total, nil
}

// LedgerEntries returns the surviving ledger rows for a batch, oldest first.
func (r *MySQLPantryRepository) LedgerEntries(ctx context.Context, batchID int64) ([]model.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_id, batch_id, transaction_type, quantity_changed, created_at
		FROM ledger WHERE batch_id = ? ORDER BY entry_id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Type, &e.QuantityChanged, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListInventory returns the user's batches joined with item and category names.
func (r *MySQLPantryRepository) ListInventory(ctx context.Context, userID int64) ([]model.InventoryRow, error) {
	query := `
		SELECT b.batch_id, b.item_id, b.purchase_date, b.expiry_date,
		       b.initial_quantity, b.remaining_quantity, b.unit, b.location,
		       i.name, c.name
		FROM batches b
		JOIN items i ON b.item_id = i.item_id
		JOIN categories c ON i.category_id = c.category_id
		WHERE i.user_id = ?
		ORDER BY i.name, b.expiry_date IS NULL, b.expiry_date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var result []model.InventoryRow
	for rows.Next() {
		var row model.InventoryRow
		var purchase, expiry sql.NullTime
		var location sql.NullString
		if err := rows.Scan(&row.ID, &row.ItemID, &purchase, &expiry,
			&row.InitialQuantity, &row.RemainingQuantity, &row.Unit, &location,
			&row.ItemName, &row.CategoryName); err != nil {
			return nil, err
		}
		row.PurchaseDate = mysqlDate(purchase)
		row.ExpiryDate = mysqlDate(expiry)
		if location.Valid {
			row.Location = &location.String
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// UpsertRestockAlert creates or replaces the alert for an item.
func (r *MySQLPantryRepository) UpsertRestockAlert(ctx context.Context, itemID int64, minQuantity float64) error {
	query := `
		INSERT INTO restock_alerts (item_id, min_quantity, alert_enabled)
		VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE
			min_quantity = VALUES(min_quantity),
			alert_enabled = 1`

	_, err := r.db.ExecContext(ctx, query, itemID, minQuantity)
	if err != nil {
		return fmt.Errorf("failed to upsert restock alert: %w", err)
	}
	return nil
}

// ListLowStock evaluates enabled alerts against aggregate remaining stock.
func (r *MySQLPantryRepository) ListLowStock(ctx context.Context, userID int64) ([]model.LowStockAlert, error) {
	query := `
		SELECT ra.alert_id, i.name, ra.min_quantity,
		       COALESCE(SUM(b.remaining_quantity), 0) AS total_remaining,
		       COALESCE(MAX(b.unit), '')
		FROM restock_alerts ra
		JOIN items i ON ra.item_id = i.item_id
		LEFT JOIN batches b ON b.item_id = i.item_id
		WHERE i.user_id = ? AND ra.alert_enabled = 1
		GROUP BY ra.alert_id, i.name, ra.min_quantity
		HAVING total_remaining <= ra.min_quantity OR total_remaining = 0
		ORDER BY i.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}
	defer rows.Close()

	var alerts []model.LowStockAlert
	for rows.Next() {
		var a model.LowStockAlert
		if err := rows.Scan(&a.AlertID, &a.ItemName, &a.MinQuantity, &a.TotalRemaining, &a.Unit); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// ListExpiring returns batches with stock left expiring on or before the cutoff.
func (r *MySQLPantryRepository) ListExpiring(ctx context.Context, userID int64, until time.Time) ([]model.ExpiryAlert, error) {
	query := `
		SELECT i.name, b.expiry_date, b.remaining_quantity, b.unit
		FROM batches b
		JOIN items i ON b.item_id = i.item_id
		WHERE i.user_id = ?
		  AND b.expiry_date IS NOT NULL
		  AND b.remaining_quantity > 0
		  AND b.expiry_date <= ?
		ORDER BY b.expiry_date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, until.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring batches: %w", err)
	}
	defer rows.Close()

	var alerts []model.ExpiryAlert
	for rows.Next() {
		var a model.ExpiryAlert
		var expiry sql.NullTime
		if err := rows.Scan(&a.ItemName, &expiry, &a.RemainingQuantity, &a.Unit); err != nil {
			return nil, err
		}
		if expiry.Valid {
			a.ExpiryDate = expiry.Time
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// AvailableRecipes reports recipes whose every ingredient is covered by the
// user's current stock.
func (r *MySQLPantryRepository) AvailableRecipes(ctx context.Context, userID int64) ([]model.Recipe, error) {
	query := `
		SELECT r.recipe_id, r.name, COALESCE(r.description, '')
		FROM recipes r
		WHERE EXISTS (
			SELECT 1
			FROM recipe_ingredients ri
			JOIN items i ON i.item_id = ri.item_id
			WHERE ri.recipe_id = r.recipe_id AND i.user_id = ?
		)
		AND NOT EXISTS (
			SELECT 1
			FROM recipe_ingredients ri
			JOIN items i ON i.item_id = ri.item_id
			WHERE ri.recipe_id = r.recipe_id
			  AND i.user_id = ?
			  AND ri.quantity_needed > (
				SELECT COALESCE(SUM(b.remaining_quantity), 0)
				FROM batches b
				WHERE b.item_id = ri.item_id AND b.unit = ri.unit
			  )
		)
		ORDER BY r.name`

	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to report available recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		var rec model.Recipe
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description); err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// CountLowStock counts triggered restock alerts across all users.
func (r *MySQLPantryRepository) CountLowStock(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT ra.alert_id
			FROM restock_alerts ra
			LEFT JOIN batches b ON b.item_id = ra.item_id
			WHERE ra.alert_enabled = 1
			GROUP BY ra.alert_id, ra.min_quantity
			HAVING COALESCE(SUM(b.remaining_quantity), 0) <= ra.min_quantity
		) triggered`

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count low stock: %w", err)
	}
	return count, nil
}

// CountExpiringBatches counts batches with stock left expiring on or before
// the cutoff, across all users.
func (r *MySQLPantryRepository) CountExpiringBatches(ctx context.Context, until time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM batches
		WHERE expiry_date IS NOT NULL AND remaining_quantity > 0 AND expiry_date <= ?`,
		until.Format(dateLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expiring batches: %w", err)
	}
	return count, nil
}

// CreateUser stores a user with an already-hashed password.
func (r *MySQLPantryRepository) CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		name, email, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return res.LastInsertId()
}

// GetUserByEmail finds a user by email.
func (r *MySQLPantryRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, name, email, password_hash FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUser finds a user by id.
func (r *MySQLPantryRepository) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, name, email, password_hash FROM users WHERE user_id = ?`, userID).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Close closes the database connection.
func (r *MySQLPantryRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLPantryRepository implements both contracts
var (
	_ PantryRepository = (*MySQLPantryRepository)(nil)
	_ UserRepository   = (*MySQLPantryRepository)(nil)
)
