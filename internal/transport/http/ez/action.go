package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 管理端动作注册器。统一 {code,msg,data} 信封、入参绑定、
// 鉴权/角色检查和错误映射，业务写成一个闭包即可。

type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

var codeMsg = map[int]string{
	0:   "OK",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	500: "Internal Server Error",
}

func ok(data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: 0, Msg: codeMsg[0], Data: data}
}

func fail(code int, msg string) Resp {
	if msg == "" {
		msg = codeMsg[code]
	}
	return Resp{Code: code, Msg: msg, Data: struct{}{}}
}

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none" // 自己从 c.Param / c.PostForm 取
)

// AErr 带业务码的动作错误
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func BadRequest(msg string) error          { return &AErr{Code: 400, Msg: msg} }
func Unauthorized(msg string) error        { return &AErr{Code: 401, Msg: msg} }
func Forbidden(msg string) error           { return &AErr{Code: 403, Msg: msg} }
func NotFound(msg string) error            { return &AErr{Code: 404, Msg: msg} }
func Internal(msg string, err error) error { return &AErr{Code: 500, Msg: msg, Err: err} }

// Action I 入参 / O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string
	Binder  Binder
	Auth    bool     // 要求已登录（中间件写入 userId）
	Roles   []string // 限定角色（可选）
	UseTx   bool     // 包一层 gorm.Transaction
	Handler func(c *gin.Context, db *gorm.DB, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, db *gorm.DB, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			uid := c.GetString("userId")
			if uid == "" {
				c.JSON(http.StatusOK, fail(401, "unauthorized"))
				return
			}
			if len(a.Roles) > 0 {
				role := c.GetString("role")
				allowed := false
				for _, r := range a.Roles {
					if role == r {
						allowed = true
						break
					}
				}
				if !allowed {
					c.JSON(http.StatusOK, fail(403, "forbidden"))
					return
				}
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, fail(400, bindErr.Error()))
			return
		}

		var out O
		var err error
		if a.UseTx {
			err = db.WithContext(c).Transaction(func(tx *gorm.DB) error {
				o, e := a.Handler(c, tx, &in)
				out = o
				return e
			})
		} else {
			out, err = a.Handler(c, db.WithContext(c), &in)
		}

		if err != nil {
			var ae *AErr
			if errors.As(err, &ae) {
				c.JSON(http.StatusOK, fail(ae.Code, ae.Error()))
				return
			}
			c.JSON(http.StatusOK, fail(500, err.Error()))
			return
		}
		c.JSON(http.StatusOK, ok(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}
