package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"user-directory/internal/domain"
	"user-directory/internal/repo"
	httpez "user-directory/internal/transport/http/ez"
)

// 管理端接口集中在这里注册
func mountAdminActions(admin *gin.RouterGroup, db *gorm.DB) {
	ez := httpez.New(admin)

	// --- GET /admin/v1/users 用户列表（运维视角：offset/limit + 模糊搜） ---
	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // 按 name/email 模糊搜
	}
	type listOut struct {
		Total int64         `json:"total"`
		Items []domain.User `json:"items"`
	}

	httpez.RegisterAction[listQ, listOut](ez, db, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Auth:   true, // 分组已挂 AuthJWT，这里是双保险
		Roles:  []string{"admin"},
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			q := tx.Model(&domain.User{})
			if s := strings.TrimSpace(in.Q); s != "" {
				like := "%" + repo.EscapeLike(strings.ToLower(s)) + "%"
				q = q.Where("lower(email) LIKE ? ESCAPE '!' OR lower(name) LIKE ? ESCAPE '!'", like, like)
			}

			var total int64
			if err := q.Count(&total).Error; err != nil {
				return listOut{}, httpez.Internal("count users failed", err)
			}

			items := make([]domain.User, 0, in.Limit)
			if err := q.Order("id ASC").Limit(in.Limit).Offset(in.Offset).Find(&items).Error; err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}
			return listOut{Total: total, Items: items}, nil
		},
	})

	// --- DELETE /admin/v1/users/:id 删除用户 ---
	httpez.RegisterAction[struct{}, gin.H](ez, db, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  []string{"admin"},
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, httpez.BadRequest("missing id")
			}
			res := tx.Where("id = ?", id).Delete(&domain.User{})
			if res.Error != nil {
				return nil, httpez.Internal("delete user failed", res.Error)
			}
			if res.RowsAffected == 0 {
				return nil, httpez.NotFound("user not found")
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- GET /admin/v1/stats 总量 ---
	httpez.RegisterAction[struct{}, gin.H](ez, db, httpez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/stats",
		Binder: httpez.BindNone,
		Auth:   true,
		Roles:  []string{"admin"},
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			var total int64
			if err := tx.Model(&domain.User{}).Count(&total).Error; err != nil {
				return nil, httpez.Internal("count users failed", err)
			}
			return gin.H{"users": total}, nil
		},
	})
}
