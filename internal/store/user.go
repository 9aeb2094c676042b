package store

import (
	"context"
	"errors"
	"fmt"

	"statefulset-users/internal/database"
	"statefulset-users/internal/model"

	"github.com/jackc/pgx/v5"
)

// ErrUserNotFound 查無符合 id 的使用者
var ErrUserNotFound = errors.New("user not found")

// name / email 欄位可為 NULL，統一轉成空字串
const userColumns = `id, COALESCE(name, ''), COALESCE(email, ''), created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListUsers 依 created_at 由新到舊回傳全部使用者
func ListUsers(ctx context.Context, db database.DB) ([]model.User, error) {
	rows, err := db.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUsers: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	return users, nil
}

// GetUserByID 的 id 直接綁定為查詢參數，型別轉換交給資料庫
func GetUserByID(ctx context.Context, db database.DB, id string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	return u, nil
}

func CreateUser(ctx context.Context, db database.DB, name, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`INSERT INTO users (name, email)
		 VALUES ($1, $2)
		 RETURNING `+userColumns,
		name,
		email,
	))
	if err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

func UpdateUser(ctx context.Context, db database.DB, id, name, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`UPDATE users SET name = $1, email = $2
		 WHERE id = $3
		 RETURNING `+userColumns,
		name,
		email,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}
	return u, nil
}

func DeleteUser(ctx context.Context, db database.DB, id string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`DELETE FROM users WHERE id = $1
		 RETURNING `+userColumns,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("DeleteUser: %w", err)
	}
	return u, nil
}

// DBStatus 查詢資料庫目前時間與版本，不檢查 ready 旗標
func DBStatus(ctx context.Context, db database.DB) (*model.DBStatus, error) {
	s := &model.DBStatus{}
	if err := db.QueryRow(ctx,
		`SELECT NOW() AS current_time, version() AS db_version`,
	).Scan(&s.CurrentTime, &s.DBVersion); err != nil {
		return nil, fmt.Errorf("DBStatus: %w", err)
	}
	return s, nil
}
