package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"user-directory/internal/domain"
)

// ValidationError 调用方可修复的输入问题，transport 层映射为 400
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// 简单的 local@domain 形状校验，不追求 RFC 完备
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+$`)

// FieldPatch 创建/更新共用的入参：nil 表示字段未出现在请求体里
type FieldPatch struct {
	Name    *string
	Email   *string
	Age     *int
	Address *string
}

// ListResult 即列表接口的响应体
type ListResult struct {
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
	Data       []domain.User `json:"data"`
}

type UserService struct {
	repo domain.UserRepository
}

func NewUserService(repo domain.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// normalize 统一入库形态：去空白 + 小写
func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *UserService) Create(ctx context.Context, in FieldPatch) (*domain.User, error) {
	if in.Name == nil {
		return nil, invalidf("name is required")
	}
	name := normalize(*in.Name)
	if len(name) < 2 {
		return nil, invalidf("name must be at least 2 characters")
	}
	if in.Age == nil {
		return nil, invalidf("age is required")
	}
	if *in.Age < 0 {
		return nil, invalidf("age must be a non-negative integer")
	}

	u := &domain.User{Name: name, Age: *in.Age}
	if in.Email != nil {
		email := normalize(*in.Email)
		if email != "" {
			if !emailShape.MatchString(email) {
				return nil, invalidf("email is invalid")
			}
			taken, err := s.repo.EmailTaken(ctx, email, 0)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domain.ErrEmailTaken
			}
			u.Email = &email
		}
	}
	if in.Address != nil {
		u.Address = normalize(*in.Address)
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update 只应用请求体里出现的字段，规则与创建一致；
// 邮箱唯一性排除目标记录自身。
func (s *UserService) Update(ctx context.Context, id uint, in FieldPatch) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}

	if in.Name != nil {
		name := normalize(*in.Name)
		if len(name) < 2 {
			return nil, invalidf("name must be at least 2 characters")
		}
		u.Name = name
	}
	if in.Age != nil {
		if *in.Age < 0 {
			return nil, invalidf("age must be a non-negative integer")
		}
		u.Age = *in.Age
	}
	if in.Email != nil {
		email := normalize(*in.Email)
		if email == "" {
			u.Email = nil
		} else {
			if !emailShape.MatchString(email) {
				return nil, invalidf("email is invalid")
			}
			taken, err := s.repo.EmailTaken(ctx, email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domain.ErrEmailTaken
			}
			u.Email = &email
		}
	}
	if in.Address != nil {
		u.Address = normalize(*in.Address)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// List 分页参数越界直接拒绝（不做钳制），校验通过才会查库。
func (s *UserService) List(ctx context.Context, page, limit int, search string) (*ListResult, error) {
	if page < 1 {
		return nil, invalidf("page must be a positive integer")
	}
	if limit <= 0 || limit > 5 {
		return nil, invalidf("limit must be between 1 and 5")
	}

	users, total, err := s.repo.List(ctx, domain.ListQuery{
		Search: search,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		Data:       users,
	}, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}
