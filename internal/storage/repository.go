// Package storage persists the four entity collections in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Transactions

const transactionColumns = `id, user_id, type, description, amount, category, date, created_at, generated_from, is_recurring, recurring_frequency`

func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	var generatedFrom any
	if tx.GeneratedFrom != nil {
		generatedFrom = tx.GeneratedFrom.String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.UserID, string(tx.Type.Normalize()), tx.Description,
		tx.Amount.String(), tx.Category, tx.Date.String(),
		tx.CreatedAt.UTC().Format(time.RFC3339Nano),
		generatedFrom, boolToInt(tx.IsRecurring), string(tx.RecurringFrequency))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET type = ?, description = ?, amount = ?, category = ?, date = ?
		 WHERE user_id = ? AND id = ?`,
		string(tx.Type.Normalize()), tx.Description, tx.Amount.String(),
		tx.Category, tx.Date.String(), tx.UserID, tx.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, "transaction", tx.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, "transaction", id)
}

func (r *Repository) GetTransaction(ctx context.Context, userID string, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`,
		userID, id.String())
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{Kind: "transaction", ID: id.String()}
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Budgets

const budgetColumns = `id, user_id, category, limit_amount, period, created_at`

func (r *Repository) InsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.UserID, b.Category, b.Limit.String(), b.Period,
		b.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, limit_amount = ? WHERE user_id = ? AND id = ?`,
		b.Category, b.Limit.String(), b.UserID, b.ID.String())
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res, "budget", b.ID)
}

func (r *Repository) DeleteBudget(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, id.String())
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res, "budget", id)
}

func (r *Repository) GetBudget(ctx context.Context, userID string, id uuid.UUID) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND id = ?`,
		userID, id.String())
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, &core.NotFoundError{Kind: "budget", ID: id.String()}
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Recurrences

const recurrenceColumns = `id, user_id, description, amount, category, type, frequency, start_date, next_date, is_active, last_executed, execution_count`

func (r *Repository) InsertRecurrence(ctx context.Context, def core.RecurrenceDefinition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurrences (`+recurrenceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID.String(), def.UserID, def.Description, def.Amount.String(),
		def.Category, string(def.Type.Normalize()), string(def.Frequency),
		def.StartDate.String(), def.NextDate.String(),
		boolToInt(def.IsActive), nullableDate(def.LastExecuted), def.ExecutionCount)
	if err != nil {
		return fmt.Errorf("insert recurrence: %w", err)
	}
	return nil
}

func (r *Repository) UpdateRecurrence(ctx context.Context, def core.RecurrenceDefinition) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurrences SET description = ?, amount = ?, category = ?, type = ?,
		 frequency = ?, start_date = ?, next_date = ?, is_active = ?, last_executed = ?, execution_count = ?
		 WHERE user_id = ? AND id = ?`,
		def.Description, def.Amount.String(), def.Category, string(def.Type.Normalize()),
		string(def.Frequency), def.StartDate.String(), def.NextDate.String(),
		boolToInt(def.IsActive), nullableDate(def.LastExecuted), def.ExecutionCount,
		def.UserID, def.ID.String())
	if err != nil {
		return fmt.Errorf("update recurrence: %w", err)
	}
	return requireRow(res, "recurrence", def.ID)
}

func (r *Repository) DeleteRecurrence(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurrences WHERE user_id = ? AND id = ?`, userID, id.String())
	if err != nil {
		return fmt.Errorf("delete recurrence: %w", err)
	}
	return requireRow(res, "recurrence", id)
}

func (r *Repository) GetRecurrence(ctx context.Context, userID string, id uuid.UUID) (core.RecurrenceDefinition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurrenceColumns+` FROM recurrences WHERE user_id = ? AND id = ?`,
		userID, id.String())
	def, err := scanRecurrence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurrenceDefinition{}, &core.NotFoundError{Kind: "recurrence", ID: id.String()}
	}
	if err != nil {
		return core.RecurrenceDefinition{}, fmt.Errorf("get recurrence: %w", err)
	}
	return def, nil
}

func (r *Repository) ListRecurrences(ctx context.Context, userID string) ([]core.RecurrenceDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurrenceColumns+` FROM recurrences WHERE user_id = ? ORDER BY next_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurrences: %w", err)
	}
	defer rows.Close()

	var out []core.RecurrenceDefinition
	for rows.Next() {
		def, err := scanRecurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurrence: %w", err)
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// RecurrenceUserIDs lists every user owning at least one recurrence
// definition. The due-scan worker iterates these.
func (r *Repository) RecurrenceUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM recurrences ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list recurrence users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, userID)
	}
	return out, rows.Err()
}

// Goals

const goalColumns = `id, user_id, name, target_amount, saved_amount, target_date, created_at`

func (r *Repository) InsertGoal(ctx context.Context, g core.SavingsGoal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.UserID, g.Name, g.TargetAmount.String(), g.SavedAmount.String(),
		g.TargetDate.String(), g.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_amount = ?, saved_amount = ?, target_date = ?
		 WHERE user_id = ? AND id = ?`,
		g.Name, g.TargetAmount.String(), g.SavedAmount.String(), g.TargetDate.String(),
		g.UserID, g.ID.String())
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res, "goal", g.ID)
}

func (r *Repository) DeleteGoal(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id.String())
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res, "goal", id)
}

func (r *Repository) GetGoal(ctx context.Context, userID string, id uuid.UUID) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND id = ?`, userID, id.String())
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, &core.NotFoundError{Kind: "goal", ID: id.String()}
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Scanning helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx            core.Transaction
		id, txType    string
		amount, date  string
		createdAt     string
		generatedFrom sql.NullString
		isRecurring   int
		frequency     string
	)
	err := row.Scan(&id, &tx.UserID, &txType, &tx.Description, &amount, &tx.Category,
		&date, &createdAt, &generatedFrom, &isRecurring, &frequency)
	if err != nil {
		return core.Transaction{}, err
	}

	if tx.ID, err = uuid.Parse(id); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	tx.Type = core.TransactionType(txType).Normalize()
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	if tx.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date: %w", err)
	}
	if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	if generatedFrom.Valid {
		parsed, err := uuid.Parse(generatedFrom.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse generated_from: %w", err)
		}
		tx.GeneratedFrom = &parsed
	}
	tx.IsRecurring = isRecurring != 0
	tx.RecurringFrequency = core.Frequency(frequency)
	return tx, nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		id, limit string
		createdAt string
	)
	err := row.Scan(&id, &b.UserID, &b.Category, &limit, &b.Period, &createdAt)
	if err != nil {
		return core.Budget{}, err
	}

	if b.ID, err = uuid.Parse(id); err != nil {
		return core.Budget{}, fmt.Errorf("parse budget id: %w", err)
	}
	if b.Limit, err = decimal.NewFromString(limit); err != nil {
		return core.Budget{}, fmt.Errorf("parse limit: %w", err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Budget{}, fmt.Errorf("parse created_at: %w", err)
	}
	return b, nil
}

func scanRecurrence(row rowScanner) (core.RecurrenceDefinition, error) {
	var (
		def                  core.RecurrenceDefinition
		id, amount, defType  string
		frequency            string
		startDate, nextDate  string
		isActive             int
		lastExecuted         sql.NullString
	)
	err := row.Scan(&id, &def.UserID, &def.Description, &amount, &def.Category,
		&defType, &frequency, &startDate, &nextDate, &isActive, &lastExecuted,
		&def.ExecutionCount)
	if err != nil {
		return core.RecurrenceDefinition{}, err
	}

	if def.ID, err = uuid.Parse(id); err != nil {
		return core.RecurrenceDefinition{}, fmt.Errorf("parse recurrence id: %w", err)
	}
	if def.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.RecurrenceDefinition{}, fmt.Errorf("parse amount: %w", err)
	}
	def.Type = core.TransactionType(defType).Normalize()
	def.Frequency = core.Frequency(frequency)
	if def.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.RecurrenceDefinition{}, fmt.Errorf("parse start_date: %w", err)
	}
	if def.NextDate, err = core.ParseDate(nextDate); err != nil {
		return core.RecurrenceDefinition{}, fmt.Errorf("parse next_date: %w", err)
	}
	def.IsActive = isActive != 0
	if lastExecuted.Valid {
		parsed, err := core.ParseDate(lastExecuted.String)
		if err != nil {
			return core.RecurrenceDefinition{}, fmt.Errorf("parse last_executed: %w", err)
		}
		def.LastExecuted = &parsed
	}
	return def, nil
}

func scanGoal(row rowScanner) (core.SavingsGoal, error) {
	var (
		g                 core.SavingsGoal
		id, target, saved string
		targetDate        string
		createdAt         string
	)
	err := row.Scan(&id, &g.UserID, &g.Name, &target, &saved, &targetDate, &createdAt)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	if g.ID, err = uuid.Parse(id); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse goal id: %w", err)
	}
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse target_amount: %w", err)
	}
	if g.SavedAmount, err = decimal.NewFromString(saved); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse saved_amount: %w", err)
	}
	if g.TargetDate, err = core.ParseDate(targetDate); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse target_date: %w", err)
	}
	if g.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse created_at: %w", err)
	}
	return g, nil
}

func requireRow(res sql.Result, kind string, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &core.NotFoundError{Kind: kind, ID: id.String()}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableDate(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
