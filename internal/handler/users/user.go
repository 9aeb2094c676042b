package users

import (
	"errors"
	"net/http"
	"time"

	"statefulset-users/internal/api"
	"statefulset-users/internal/cache"
	"statefulset-users/internal/database"
	"statefulset-users/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

var (
	listUsers   = store.ListUsers
	getUserByID = store.GetUserByID
	createUser  = store.CreateUser
	updateUser  = store.UpdateUser
	deleteUser  = store.DeleteUser
)

// Options 控制快取與錯誤訊息揭露
type Options struct {
	// Cache 為 nil 時視為停用
	Cache        cache.Cache
	CacheTTL     time.Duration
	ExposeErrors bool
}

func (o Options) cache() cache.Cache {
	if o.Cache == nil {
		return cache.Nop{}
	}
	return o.Cache
}

func notReady(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, api.Fail(api.MsgNotReady))
}

func internalError(c echo.Context, err error, opts Options) error {
	return c.JSON(http.StatusInternalServerError, api.Fail(api.ErrorMessage(err, opts.ExposeErrors)))
}

// @Summary     List users
// @Description 依 created_at 由新到舊列出所有使用者
// @Tags        users
// @Produce     json
// @Success     200  {object}  api.Response{data=[]model.User}
// @Failure     500  {object}  api.Response
// @Failure     503  {object}  api.Response  "資料庫尚未就緒"
// @Router      /users [get]
func ListUsersHandler(db database.Conn, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !db.Ready() {
			return notReady(c)
		}
		users, err := listUsers(c.Request().Context(), db)
		if err != nil {
			return internalError(c, err, opts)
		}
		return c.JSON(http.StatusOK, api.Response{
			Success: true,
			Data:    users,
			Count:   api.Count(len(users)),
		})
	}
}

// GetUserHandler 不檢查 ready 旗標
// @Summary     Get a user by ID
// @Description 透過 ID 查詢使用者；有設定 Redis 時先讀快取
// @Tags        users
// @Produce     json
// @Param       id   path      string  true  "使用者 ID"
// @Success     200  {object}  api.Response{data=model.User}
// @Failure     404  {object}  api.Response  "使用者不存在"
// @Failure     500  {object}  api.Response  "伺服器錯誤"
// @Router      /users/{id} [get]
func GetUserHandler(db database.Conn, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")

		if u, ok := store.CachedUser(ctx, opts.cache(), id); ok {
			return c.JSON(http.StatusOK, api.Response{Success: true, Data: u})
		}

		user, err := getUserByID(ctx, db, id)
		if errors.Is(err, store.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, api.Fail(api.MsgUserNotFound))
		}
		if err != nil {
			return internalError(c, err, opts)
		}

		if err := store.CacheUser(ctx, opts.cache(), user, opts.CacheTTL); err != nil {
			log.Warn().Err(err).Int("user_id", user.ID).Msg("cache user failed")
		}
		return c.JSON(http.StatusOK, api.Response{Success: true, Data: user})
	}
}

// @Summary     Create a new user
// @Description 建立使用者，name 與 email 皆為必填
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body  body      api.CreateUserRequest  true  "使用者資料"
// @Success     201   {object}  api.Response{data=model.User}
// @Failure     400   {object}  api.Response
// @Failure     500   {object}  api.Response
// @Failure     503   {object}  api.Response
// @Router      /users [post]
func CreateUserHandler(db database.Conn, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !db.Ready() {
			return notReady(c)
		}

		var req api.CreateUserRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.Fail(api.MsgInvalidBody))
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.Fail(api.MsgNameEmailRequired))
		}

		user, err := createUser(c.Request().Context(), db, req.Name, req.Email)
		if err != nil {
			return internalError(c, err, opts)
		}
		return c.JSON(http.StatusCreated, api.Response{
			Success: true,
			Message: api.MsgUserCreated,
			Data:    user,
		})
	}
}

// @Summary     Update a user by ID
// @Description 更新使用者的 name 與 email，兩者皆為必填
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       id    path      string                 true  "使用者 ID"
// @Param       body  body      api.UpdateUserRequest  true  "使用者資料"
// @Success     200   {object}  api.Response{data=model.User}
// @Failure     400   {object}  api.Response
// @Failure     404   {object}  api.Response
// @Failure     500   {object}  api.Response
// @Failure     503   {object}  api.Response
// @Router      /users/{id} [put]
func UpdateUserHandler(db database.Conn, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !db.Ready() {
			return notReady(c)
		}

		var req api.UpdateUserRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.Fail(api.MsgInvalidBody))
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.Fail(api.MsgNameEmailRequired))
		}

		ctx := c.Request().Context()
		user, err := updateUser(ctx, db, c.Param("id"), req.Name, req.Email)
		if errors.Is(err, store.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, api.Fail(api.MsgUserNotFound))
		}
		if err != nil {
			return internalError(c, err, opts)
		}

		if err := store.InvalidateUser(ctx, opts.cache(), user.ID); err != nil {
			log.Warn().Err(err).Int("user_id", user.ID).Msg("invalidate cached user failed")
		}
		return c.JSON(http.StatusOK, api.Response{
			Success: true,
			Message: api.MsgUserUpdated,
			Data:    user,
		})
	}
}

// @Summary     Delete a user by ID
// @Description 刪除使用者並回傳被刪除的資料
// @Tags        users
// @Produce     json
// @Param       id   path      string  true  "使用者 ID"
// @Success     200  {object}  api.Response{data=model.User}
// @Failure     404  {object}  api.Response
// @Failure     500  {object}  api.Response
// @Failure     503  {object}  api.Response
// @Router      /users/{id} [delete]
func DeleteUserHandler(db database.Conn, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !db.Ready() {
			return notReady(c)
		}

		ctx := c.Request().Context()
		user, err := deleteUser(ctx, db, c.Param("id"))
		if errors.Is(err, store.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, api.Fail(api.MsgUserNotFound))
		}
		if err != nil {
			return internalError(c, err, opts)
		}

		if err := store.InvalidateUser(ctx, opts.cache(), user.ID); err != nil {
			log.Warn().Err(err).Int("user_id", user.ID).Msg("invalidate cached user failed")
		}
		return c.JSON(http.StatusOK, api.Response{
			Success: true,
			Message: api.MsgUserDeleted,
			Data:    user,
		})
	}
}
