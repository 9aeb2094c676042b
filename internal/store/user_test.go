package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"statefulset-users/internal/database"
	"statefulset-users/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

/* ---------- 假實作 ---------- */

// fakeRow 實作 pgx.Row：4 個欄位為 user，2 個欄位為 db status
type fakeRow struct {
	scanErr error
	user    *model.User
	status  *model.DBStatus
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	switch len(dest) {
	case 4:
		*dest[0].(*int) = r.user.ID
		*dest[1].(*string) = r.user.Name
		*dest[2].(*string) = r.user.Email
		*dest[3].(*time.Time) = r.user.CreatedAt
	case 2:
		*dest[0].(*time.Time) = r.status.CurrentTime
		*dest[1].(*string) = r.status.DBVersion
	default:
		panic("fakeRow.Scan: unexpected dest count")
	}
	return nil
}

// fakeRows 實作 pgx.Rows，用於模擬多筆掃描行為。
type fakeRows struct {
	data    []model.User
	idx     int
	scanErr error
	err     error
	closed  bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { return r.idx < len(r.data) }
func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	u := r.data[r.idx]
	r.idx++
	return (&fakeRow{user: &u}).Scan(dest...)
}
func (r *fakeRows) Values() ([]any, error) { return nil, nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

func rowDB(row pgx.Row, gotSQL *string, gotArgs *[]any) *database.FakeDB {
	return &database.FakeDB{
		QueryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
			if gotSQL != nil {
				*gotSQL = sql
			}
			if gotArgs != nil {
				*gotArgs = args
			}
			return row
		},
	}
}

/* ---------- 測試 ---------- */

func TestListUsers(t *testing.T) {
	now := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		rows := &fakeRows{data: []model.User{
			{ID: 2, Name: "Bob", Email: "b@x.com", CreatedAt: now},
			{ID: 1, Name: "Ada", Email: "a@x.com", CreatedAt: now.Add(-time.Hour)},
		}}
		var gotSQL string
		db := &database.FakeDB{QueryFn: func(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
			gotSQL = sql
			return rows, nil
		}}
		users, err := ListUsers(context.Background(), db)
		require.NoError(t, err)
		require.Len(t, users, 2)
		require.Equal(t, "Bob", users[0].Name)
		require.Contains(t, gotSQL, "ORDER BY created_at DESC")
		require.True(t, rows.closed)
	})

	t.Run("empty is not nil", func(t *testing.T) {
		db := &database.FakeDB{QueryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &fakeRows{}, nil
		}}
		users, err := ListUsers(context.Background(), db)
		require.NoError(t, err)
		require.NotNil(t, users)
		require.Empty(t, users)
	})

	t.Run("query error", func(t *testing.T) {
		db := &database.FakeDB{QueryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
			return nil, errors.New("boom")
		}}
		_, err := ListUsers(context.Background(), db)
		require.EqualError(t, err, "ListUsers: boom")
	})

	t.Run("scan error", func(t *testing.T) {
		db := &database.FakeDB{QueryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &fakeRows{data: []model.User{{}}, scanErr: errors.New("scan")}, nil
		}}
		_, err := ListUsers(context.Background(), db)
		require.Error(t, err)
	})

	t.Run("rows error", func(t *testing.T) {
		db := &database.FakeDB{QueryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &fakeRows{err: errors.New("conn reset")}, nil
		}}
		_, err := ListUsers(context.Background(), db)
		require.ErrorContains(t, err, "conn reset")
	})
}

func TestGetUserByID(t *testing.T) {
	sample := &model.User{ID: 7, Name: "Ada", Email: "a@x.com", CreatedAt: time.Now().UTC()}

	t.Run("success passes raw id", func(t *testing.T) {
		var args []any
		u, err := GetUserByID(context.Background(), rowDB(&fakeRow{user: sample}, nil, &args), "7")
		require.NoError(t, err)
		require.Equal(t, sample, u)
		require.Equal(t, []any{"7"}, args)
	})

	t.Run("not found", func(t *testing.T) {
		u, err := GetUserByID(context.Background(), rowDB(&fakeRow{scanErr: pgx.ErrNoRows}, nil, nil), "999")
		require.ErrorIs(t, err, ErrUserNotFound)
		require.Nil(t, u)
	})

	t.Run("query error", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type integer: "abc"`}
		_, err := GetUserByID(context.Background(), rowDB(&fakeRow{scanErr: pgErr}, nil, nil), "abc")
		require.NotErrorIs(t, err, ErrUserNotFound)
		var got *pgconn.PgError
		require.ErrorAs(t, err, &got)
		require.Equal(t, "22P02", got.Code)
	})
}

func TestCreateUser(t *testing.T) {
	created := &model.User{ID: 1, Name: "Ada", Email: "a@x.com", CreatedAt: time.Now().UTC()}

	var sql string
	var args []any
	u, err := CreateUser(context.Background(), rowDB(&fakeRow{user: created}, &sql, &args), "Ada", "a@x.com")
	require.NoError(t, err)
	require.Equal(t, 1, u.ID)
	require.Contains(t, sql, "INSERT INTO users (name, email)")
	require.Contains(t, sql, "RETURNING")
	require.Equal(t, []any{"Ada", "a@x.com"}, args)

	_, err = CreateUser(context.Background(), rowDB(&fakeRow{scanErr: errors.New("dup")}, nil, nil), "a", "b")
	require.EqualError(t, err, "CreateUser: dup")
}

func TestUpdateUser(t *testing.T) {
	updated := &model.User{ID: 3, Name: "New", Email: "n@x.com", CreatedAt: time.Now().UTC()}

	var args []any
	u, err := UpdateUser(context.Background(), rowDB(&fakeRow{user: updated}, nil, &args), "3", "New", "n@x.com")
	require.NoError(t, err)
	require.Equal(t, "New", u.Name)
	require.Equal(t, []any{"New", "n@x.com", "3"}, args)

	_, err = UpdateUser(context.Background(), rowDB(&fakeRow{scanErr: pgx.ErrNoRows}, nil, nil), "4", "a", "b")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = UpdateUser(context.Background(), rowDB(&fakeRow{scanErr: errors.New("x")}, nil, nil), "4", "a", "b")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	deleted := &model.User{ID: 5, Name: "Gone", Email: "g@x.com", CreatedAt: time.Now().UTC()}

	var sql string
	u, err := DeleteUser(context.Background(), rowDB(&fakeRow{user: deleted}, &sql, nil), "5")
	require.NoError(t, err)
	require.Equal(t, deleted, u)
	require.Contains(t, sql, "DELETE FROM users WHERE id = $1")

	_, err = DeleteUser(context.Background(), rowDB(&fakeRow{scanErr: pgx.ErrNoRows}, nil, nil), "5")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDBStatus(t *testing.T) {
	now := time.Now().UTC()
	s, err := DBStatus(context.Background(), rowDB(&fakeRow{status: &model.DBStatus{CurrentTime: now, DBVersion: "PostgreSQL 16.2"}}, nil, nil))
	require.NoError(t, err)
	require.Equal(t, "PostgreSQL 16.2", s.DBVersion)
	require.Equal(t, now, s.CurrentTime)

	_, err = DBStatus(context.Background(), rowDB(&fakeRow{scanErr: errors.New("down")}, nil, nil))
	require.EqualError(t, err, "DBStatus: down")
}
