package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-directory/internal/core/cache"
	"user-directory/internal/domain"
	"user-directory/internal/service"
	"user-directory/internal/transport/http/response"
)

const userCacheTTL = 30 * time.Second

// UserHandler 公开的 /api/users 五件套 + 点查
type UserHandler struct {
	svc   *service.UserService
	cache *cache.Cache // 可为 nil：未配置 redis 时不缓存
	log   *zap.Logger
}

func New(svc *service.UserService, c *cache.Cache, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, cache: c, log: log}
}

func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	g.GET("/users", h.List)
	g.POST("/users", h.Create)
	g.GET("/users/:id", h.Get)
	g.PUT("/users/:id", h.Update)
	g.DELETE("/users/:id", h.Delete)
}

// userBody 创建/更新共用请求体；指针区分“没传”和“传了零值”
type userBody struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Age     *int    `json:"age"`
	Address *string `json:"address"`
}

func (b *userBody) patch() service.FieldPatch {
	return service.FieldPatch{Name: b.Name, Email: b.Email, Age: b.Age, Address: b.Address}
}

func bindUserBody(c *gin.Context) (*userBody, error) {
	var b userBody
	if err := c.ShouldBindJSON(&b); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field == "age" {
			return nil, errors.New("age must be a whole number")
		}
		return nil, errors.New("invalid request body")
	}
	return &b, nil
}

type listQuery struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=5"`
	Search string `form:"search"`
}

// List GET /api/users?page=&limit=&search=
func (h *UserHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "page and limit must be integers")
		return
	}
	res, err := h.svc.List(c.Request.Context(), q.Page, q.Limit, q.Search)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	body, err := bindUserBody(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.Create(c.Request.Context(), body.patch())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, "user created", u)
}

// Get GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var u *domain.User
	if h.cache != nil {
		u, err = cache.GetOrLoadJSON[domain.User](h.cache, c.Request.Context(), userKey(id), userCacheTTL,
			func(ctx context.Context) (*domain.User, error) { return h.svc.Get(ctx, id) })
	} else {
		u, err = h.svc.Get(c.Request.Context(), id)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Data(c, u)
}

// Update PUT /api/users/:id（部分或全量字段）
func (h *UserHandler) Update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	body, err := bindUserBody(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.Update(c.Request.Context(), id, body.patch())
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.cache != nil {
		_ = h.cache.Invalidate(c.Request.Context(), userKey(id))
	}
	response.OK(c, "user updated", u)
}

// Delete DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	if h.cache != nil {
		_ = h.cache.Invalidate(c.Request.Context(), userKey(id))
	}
	response.Message(c, "user deleted")
}

// fail 统一错误→状态码映射：校验/重复邮箱 400，找不到 404，其余 500
func (h *UserHandler) fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, domain.ErrEmailTaken):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	default:
		h.log.Error("user handler", zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}

// 非数字 id 等同于不存在的记录 → 404
func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, domain.ErrNotFound
	}
	return uint(v), nil
}

func userKey(id uint) string { return fmt.Sprintf("user:%d", id) }
