package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"user-directory/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		// 并发兜底：唯一索引冲突 → 领域错误
		if isDupKey(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err == nil {
		return &u, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

func (r *UserRepo) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// List 按插入序（id ASC）返回一页记录以及过滤后的总数。
// search 对 name/email/address 做大小写不敏感的子串匹配。
func (r *UserRepo) List(ctx context.Context, q domain.ListQuery) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + EscapeLike(strings.ToLower(s)) + "%"
		tx = tx.Where(
			"lower(name) LIKE ? ESCAPE '!' OR lower(email) LIKE ? ESCAPE '!' OR lower(address) LIKE ? ESCAPE '!'",
			like, like, like,
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]domain.User, 0, q.Limit)
	if err := tx.Order("id ASC").Offset(q.Offset).Limit(q.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// likeEscaper 搜索词是字面子串，不是 LIKE 模式；
// 元字符转义后配合 ESCAPE '!'（'!' 在三种方言下都能当转义符，'\' 不行）
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func EscapeLike(s string) string { return likeEscaper.Replace(s) }

// isDupKey 不依赖 gorm.ErrDuplicatedKey，避免驱动/版本差异
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
