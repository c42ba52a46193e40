package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	appErrors "github.com/spendlens/spendlens/errors"
	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/contextutil"
	"github.com/spendlens/spendlens/internal/insights"
	"github.com/spendlens/spendlens/logging"

	"github.com/go-sql-driver/mysql"
)

func Init() (*sql.DB, error) {
	var db *sql.DB
	var err error

	username := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	dbname := os.Getenv("DB_NAME")
	fullDsn := os.Getenv("FULL_DSN")

	if dbname == "" {
		dbname = "spendlens"
	}

	var adminDsn string
	if fullDsn != "" {
		parts := strings.Split(fullDsn, "/")
		adminDsn = strings.Join(parts[:len(parts)-1], "/") + "/"
	} else {
		if username == "" || password == "" || host == "" || port == "" {
			return nil, fmt.Errorf("missing required DB environment variables")
		}
		adminDsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/?parseTime=true", username, password, host, port)
	}

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open("mysql", adminDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin mysql handle: %v", err)
	}
	connected := false
	for i := 0; i < 15; i++ {
		if err := adminDb.Ping(); err == nil {
			connected = true
			break
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/15)", i+1)
		time.Sleep(3 * time.Second)
	}
	if !connected {
		return nil, fmt.Errorf("database unreachable after multiple attempts")
	}

	var dbnameExistence string
	checkDbnameExistQuery := "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	err = adminDb.QueryRow(checkDbnameExistQuery, dbname).Scan(&dbnameExistence)

	if err == sql.ErrNoRows {
		logging.Logger.Infof("Database '%s' does not exist, creating...", dbname)
		createDbSql := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci;", dbname)
		if _, err := adminDb.Exec(createDbSql); err != nil {
			adminDb.Close()
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	} else if err != nil {
		adminDb.Close()
		return nil, fmt.Errorf("failed to check database existence: %v", err)
	}

	adminDb.Close()

	var finalDsn string
	if fullDsn != "" {
		finalDsn = fullDsn
	} else {
		finalDsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", username, password, host, port, dbname)
	}

	logging.Logger.Info("Connecting to database...")
	db, err = sql.Open("mysql", finalDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %v", err)
	}

	if _, err := db.Exec("SET GLOBAL time_zone = '+00:00'"); err != nil {
		logging.Logger.Warn("failed to set database timezone(UTC+0)")
	}

	logging.Logger.Info("Connected to database successfully")
	logging.Logger.Info("Running migrations...")

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	migrationFiles, err := getMigrationFiles("db/migrations")
	if err != nil {
		return fmt.Errorf("failed to get migration files: %v", err)
	}

	lastAppliedMigration, err := getLastAppliedMigration(db)
	if err != nil {
		return fmt.Errorf("failed to get last applied migration name: %v", err)
	}

	newMigrations := filterNewMigrations(migrationFiles, lastAppliedMigration)

	if len(newMigrations) == 0 {
		logging.Logger.Info("no new migration")
		return nil
	}

	for _, migrationFile := range newMigrations {
		logging.Logger.Info("applying migration: ", migrationFile)
		migrationContent, err := os.ReadFile(filepath.Join("db/migrations/", migrationFile))
		if err != nil {
			return fmt.Errorf("failed to read this '%s' migration file, error: %v", migrationFile, err)
		}

		if err := applyMigration(db, migrationFile, string(migrationContent)); err != nil {
			return fmt.Errorf("failed to apply this '%s' migration file, error: %v", migrationFile, err)
		}
	}

	logging.Logger.Info("all migrations applied successfully")
	return nil
}

func getMigrationFiles(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)
	return migrationFiles, nil
}

func getLastAppliedMigration(db *sql.DB) (string, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS migration (
        id INT AUTO_INCREMENT PRIMARY KEY,
        migration_name VARCHAR(255) NOT NULL UNIQUE,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );`)

	if err != nil {
		return "", err
	}

	var lastMigration string
	err = db.QueryRow("SELECT migration_name FROM migration ORDER BY migration_name DESC LIMIT 1").Scan(&lastMigration)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return lastMigration, err
}

func filterNewMigrations(all []string, lastApplied string) []string {
	if lastApplied == "" {
		return all
	}

	var result []string
	for _, migration := range all {
		if migration > lastApplied {
			result = append(result, migration)
		}
	}
	return result
}

func applyMigration(db *sql.DB, name, sqlContent string) error {
	txn, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	statements := strings.Split(sqlContent, ";")

	for _, statement := range statements {
		trimmedStmt := strings.TrimSpace(statement)
		if trimmedStmt == "" {
			continue
		}

		if _, err := txn.Exec(trimmedStmt); err != nil {
			txn.Rollback()
			return fmt.Errorf("migration statement failed: %w\nStatement: %s", err, trimmedStmt)
		}
	}

	if _, err := txn.Exec("INSERT INTO migration (migration_name) VALUES (?)", name); err != nil {
		txn.Rollback()
		return fmt.Errorf("failed to record migration name: %w", err)
	}

	return txn.Commit()
}

type MySQLStorage struct {
	db *sql.DB
}

func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{db: db}
}

func (mySql *MySQLStorage) GetStorageType() string {
	return "mysql"
}

func (mySql *MySQLStorage) SaveUser(ctx context.Context, user auth.User) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "INSERT INTO user (id, username, fullname, hashed_password, email) VALUES (?, ?, ?, ?, ?);"
	_, err := mySql.db.Exec(query, user.ID, user.UserName, user.FullName, user.PasswordHashed, user.Email)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return appErrors.ErrorResponse{
				Code:    appErrors.ErrConflict,
				Message: "This username or email is already taken.",
			}
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save user in Storage.SaveUser() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Registration failed, try again later.",
		}
	}
	return nil
}

func (mySql *MySQLStorage) ValidateUser(ctx context.Context, credentials auth.UserCredentialsPure) (auth.User, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	var user auth.User
	query := "SELECT id, username, fullname, hashed_password, email FROM user WHERE username = ?;"
	err := mySql.db.QueryRow(query, strings.ToLower(credentials.UserName)).
		Scan(&user.ID, &user.UserName, &user.FullName, &user.PasswordHashed, &user.Email)
	if err == sql.ErrNoRows {
		return auth.User{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Username or password is wrong.",
		}
	}
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get user in Storage.ValidateUser() function | Error: %v", traceID, err)
		return auth.User{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Login failed, try again later.",
		}
	}

	if !auth.ComparePasswords(user.PasswordHashed, credentials.PasswordPlain) {
		return auth.User{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Username or password is wrong.",
		}
	}
	return user, nil
}

func (mySql *MySQLStorage) IsUserExists(ctx context.Context, username string) (bool, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	var count int
	query := "SELECT COUNT(*) FROM user WHERE username = ?;"
	if err := mySql.db.QueryRow(query, strings.ToLower(username)).Scan(&count); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to check user in Storage.IsUserExists() function | Error: %v", traceID, err)
		return false, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to check username, try again later.",
		}
	}
	return count > 0, nil
}

func (mySql *MySQLStorage) SaveSession(ctx context.Context, session auth.Session) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "INSERT INTO session (id, token, created_at, expire_at, user_id) VALUES (?, ?, ?, ?, ?);"
	_, err := mySql.db.Exec(query, session.ID, session.Token, session.CreatedAt, session.ExpireAt, session.UserID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save session in Storage.SaveSession() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save session, try again later.",
		}
	}
	return nil
}

func (mySql *MySQLStorage) GetSessionByToken(ctx context.Context, token string) (auth.Session, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	var session auth.Session
	query := "SELECT id, token, created_at, expire_at, user_id FROM session WHERE token = ?;"
	err := mySql.db.QueryRow(query, token).
		Scan(&session.ID, &session.Token, &session.CreatedAt, &session.ExpireAt, &session.UserID)
	if err == sql.ErrNoRows {
		return auth.Session{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Session not found, login again.",
		}
	}
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get session in Storage.GetSessionByToken() function | Error: %v", traceID, err)
		return auth.Session{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to check session, try again later.",
		}
	}
	return session, nil
}

func (mySql *MySQLStorage) CheckSession(ctx context.Context, token string) (string, error) {
	session, err := mySql.GetSessionByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if session.ExpireAt.Before(time.Now().UTC()) {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Session expired, login again.",
		}
	}
	return session.UserID, nil
}

func (mySql *MySQLStorage) UpdateSession(ctx context.Context, userId string, expireAt time.Time) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "UPDATE session SET expire_at = ? WHERE user_id = ?;"
	if _, err := mySql.db.Exec(query, expireAt, userId); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to update session in Storage.UpdateSession() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to extend session, try again later.",
		}
	}
	return nil
}

func (mySql *MySQLStorage) LogoutUser(ctx context.Context, userId string, token string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "DELETE FROM session WHERE user_id = ? AND token = ?;"
	if _, err := mySql.db.Exec(query, userId, token); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to delete session in Storage.LogoutUser() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Logout failed, try again later.",
		}
	}
	return nil
}

func (mySql *MySQLStorage) SaveExpense(ctx context.Context, expense insights.Expense) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "INSERT INTO expense (id, category, amount, description, is_recurring, spent_at, created_by) VALUES (?, ?, ?, ?, ?, ?, ?);"
	_, err := mySql.db.Exec(query, expense.ID, expense.Category, expense.Amount, expense.Description, expense.IsRecurring, expense.Date, expense.CreatedBy)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save expense in Storage.SaveExpense() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save the expense, try again later.",
		}
	}
	return nil
}

func (mySql *MySQLStorage) SaveIncome(ctx context.Context, income insights.Income) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "INSERT INTO income (id, source, amount, note, is_recurring, received_at, created_by) VALUES (?, ?, ?, ?, ?, ?, ?);"
	_, err := mySql.db.Exec(query, income.ID, income.Source, income.Amount, income.Note, income.IsRecurring, income.Date, income.CreatedBy)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to save income in Storage.SaveIncome() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save the income, try again later.",
		}
	}
	return nil
}

func (mySql *MySQLStorage) GetExpenses(ctx context.Context, userId string, from, to *time.Time) ([]insights.Expense, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, category, amount, description, is_recurring, spent_at, created_by FROM expense WHERE created_by = ?"
	args := []any{userId}
	if from != nil {
		query += " AND spent_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND spent_at <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY spent_at DESC;"

	rows, err := mySql.db.Query(query, args...)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get expenses in Storage.GetExpenses() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get expenses, try again later.",
		}
	}
	defer rows.Close()

	var expenses []insights.Expense
	for rows.Next() {
		var e insights.Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Amount, &e.Description, &e.IsRecurring, &e.Date, &e.CreatedBy); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan expense row in Storage.GetExpenses() function | Error: %v", traceID, err)
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInternal,
				Message: "Failed to read expenses, try again later.",
			}
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | expense rows iteration failed in Storage.GetExpenses() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to read expenses, try again later.",
		}
	}
	return expenses, nil
}

func (mySql *MySQLStorage) GetIncomes(ctx context.Context, userId string, from, to *time.Time) ([]insights.Income, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, source, amount, note, is_recurring, received_at, created_by FROM income WHERE created_by = ?"
	args := []any{userId}
	if from != nil {
		query += " AND received_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND received_at <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY received_at DESC;"

	rows, err := mySql.db.Query(query, args...)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get incomes in Storage.GetIncomes() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get incomes, try again later.",
		}
	}
	defer rows.Close()

	var incomes []insights.Income
	for rows.Next() {
		var in insights.Income
		if err := rows.Scan(&in.ID, &in.Source, &in.Amount, &in.Note, &in.IsRecurring, &in.Date, &in.CreatedBy); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan income row in Storage.GetIncomes() function | Error: %v", traceID, err)
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInternal,
				Message: "Failed to read incomes, try again later.",
			}
		}
		incomes = append(incomes, in)
	}
	if err := rows.Err(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | income rows iteration failed in Storage.GetIncomes() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to read incomes, try again later.",
		}
	}
	return incomes, nil
}

func (mySql *MySQLStorage) UpsertBudget(ctx context.Context, budget insights.Budget) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := `INSERT INTO budget (id, category, monthly_budget, created_by) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE monthly_budget = VALUES(monthly_budget);`
	_, err := mySql.db.Exec(query, budget.ID, budget.Category, budget.MonthlyBudget, budget.CreatedBy)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to upsert budget in Storage.UpsertBudget() function | Error: %v", traceID, err)
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save the budget, try again later.",
		}
	}
	return nil
}

func (mySql *MySQLStorage) GetBudgets(ctx context.Context, userId string) ([]insights.Budget, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT id, category, monthly_budget, created_by FROM budget WHERE created_by = ? ORDER BY category;"
	rows, err := mySql.db.Query(query, userId)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get budgets in Storage.GetBudgets() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to get budgets, try again later.",
		}
	}
	defer rows.Close()

	var budgets []insights.Budget
	for rows.Next() {
		var b insights.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.MonthlyBudget, &b.CreatedBy); err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan budget row in Storage.GetBudgets() function | Error: %v", traceID, err)
			return nil, appErrors.ErrorResponse{
				Code:    appErrors.ErrInternal,
				Message: "Failed to read budgets, try again later.",
			}
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | budget rows iteration failed in Storage.GetBudgets() function | Error: %v", traceID, err)
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to read budgets, try again later.",
		}
	}
	return budgets, nil
}
