package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/domain/user"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

const accountKey = "account"

// userRepository 用户仓储实现
// 1. User与Account一对一，Create/Update/Delete都在同一事务中处理两张表
// 2. 用户名唯一性由数据库UNIQUE索引保证（而非应用层SELECT再INSERT）
// 3. 密码在写入前由应用层完成哈希，这里只存储
type userRepository struct {
	*crudRepository[user.User, UserModel]
	accounts *crudRepository[user.Account, AccountModel]
}

// NewUserRepository 创建用户仓储
// 注意：返回的是domain层的接口类型，不是具体类型（依赖倒置）
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{
		crudRepository: newCRUDRepository(db, userSchema()),
		accounts:       newAccountRepository(db),
	}
}

// NewAccountRepository 创建账户仓储
// 账户的user_id创建后不可修改；账户只能经由userRepository.Delete随用户删除
func NewAccountRepository(db *gorm.DB) user.AccountRepository {
	return newAccountRepository(db)
}

// Create 创建用户及其账户
// attrs["account"]必填；账户写入失败时用户记录一并回滚
func (r *userRepository) Create(ctx context.Context, attrs repository.Attributes) (*user.User, error) {
	accountAttrs, ok := attrs.Nested(accountKey)
	if !ok {
		return nil, user.ErrAccountRequired
	}

	var created *user.User
	err := transaction(ctx, r.db, func(ctx context.Context) error {
		u, err := r.crudRepository.Create(ctx, attrs.Without(accountKey))
		if err != nil {
			return err
		}

		accountAttrs := accountAttrs.Without("user_id")
		accountAttrs["user_id"] = u.ID
		if _, err := r.accounts.Create(ctx, accountAttrs); err != nil {
			return err
		}

		created, err = r.crudRepository.FindByID(ctx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update 局部更新用户，嵌套的account键更新账户
func (r *userRepository) Update(ctx context.Context, id uint, attrs repository.Attributes) (*user.User, error) {
	var updated *user.User
	err := transaction(ctx, r.db, func(ctx context.Context) error {
		u, err := r.crudRepository.Update(ctx, id, attrs.Without(accountKey))
		if err != nil {
			return err
		}

		accountAttrs, ok := attrs.Nested(accountKey)
		if !ok || len(accountAttrs) == 0 {
			updated = u
			return nil
		}

		accountID, err := r.accountIDOf(ctx, id)
		if err != nil {
			return err
		}
		if _, err := r.accounts.Update(ctx, accountID, accountAttrs.Without("user_id")); err != nil {
			return err
		}

		updated, err = r.crudRepository.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 软删除用户及其账户
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return transaction(ctx, r.db, func(ctx context.Context) error {
		if err := r.crudRepository.Delete(ctx, id); err != nil {
			return err
		}
		if err := getDB(ctx, r.db).Where("user_id = ?", id).Delete(&AccountModel{}).Error; err != nil {
			return apperrors.Wrap(err, "删除账户失败")
		}
		return nil
	})
}

func (r *userRepository) accountIDOf(ctx context.Context, userID uint) (uint, error) {
	var model AccountModel
	err := getDB(ctx, r.db).Select("id").Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.Newf(apperrors.ErrCodeNotFound, "用户 %d 没有账户", userID)
		}
		return 0, apperrors.Wrap(err, "查询账户失败")
	}
	return model.ID, nil
}

func userSchema() schema[user.User, UserModel] {
	return schema[user.User, UserModel]{
		kind: repository.KindUser,
		fields: fields[UserModel]{
			"username": stringField("username", func(m *UserModel) *string { return &m.Username }),
			"password": stringField("password", func(m *UserModel) *string { return &m.Password }),
		},
		preload:  []string{"Account"},
		toEntity: toUserEntity,
	}
}

func newAccountRepository(db *gorm.DB) *crudRepository[user.Account, AccountModel] {
	return newCRUDRepository(db, schema[user.Account, AccountModel]{
		kind: repository.KindAccount,
		fields: fields[AccountModel]{
			"user_id":      uintField("user_id", func(m *AccountModel) *uint { return &m.UserID }),
			"email":        stringField("email", func(m *AccountModel) *string { return &m.Email }),
			"first_name":   stringField("first_name", func(m *AccountModel) *string { return &m.FirstName }),
			"last_name":    stringField("last_name", func(m *AccountModel) *string { return &m.LastName }),
			"address_one":  stringField("address_one", func(m *AccountModel) *string { return &m.AddressOne }),
			"address_two":  nullableStringField("address_two", func(m *AccountModel) **string { return &m.AddressTwo }),
			"city":         stringField("city", func(m *AccountModel) *string { return &m.City }),
			"territory":    stringField("territory", func(m *AccountModel) *string { return &m.Territory }),
			"country_code": stringField("country_code", func(m *AccountModel) *string { return &m.CountryCode }),
			"postal_code":  stringField("postal_code", func(m *AccountModel) *string { return &m.PostalCode }),
			"phone":        stringField("phone", func(m *AccountModel) *string { return &m.Phone }),
			"alt_phone":    nullableStringField("alt_phone", func(m *AccountModel) **string { return &m.AltPhone }),
		},
		refs: []reference[AccountModel]{
			{key: "user_id", kind: repository.KindUser, model: &UserModel{}, value: func(m *AccountModel) uint { return m.UserID }},
		},
		toEntity: toAccountEntity,
		beforeUpdate: func(ctx context.Context, db *gorm.DB, cur *AccountModel, attrs repository.Attributes) error {
			if attrs.Has("user_id") {
				return user.ErrAccountOwnerImmutable.WithCause(fmt.Errorf("account %d", cur.ID))
			}
			return nil
		},
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *AccountModel) error {
			return user.ErrAccountDeleteAlone.WithCause(fmt.Errorf("account %d of user %d", cur.ID, cur.UserID))
		},
	})
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toUserEntity GORM模型 → 领域实体
func toUserEntity(m *UserModel) *user.User {
	u := &user.User{
		ID:          m.ID,
		Username:    m.Username,
		Password:    m.Password,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Account != nil {
		u.Account = toAccountEntity(m.Account)
	}
	return u
}

func toAccountEntity(m *AccountModel) *user.Account {
	return &user.Account{
		ID:          m.ID,
		UserID:      m.UserID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		AddressOne:  m.AddressOne,
		AddressTwo:  m.AddressTwo,
		City:        m.City,
		Territory:   m.Territory,
		CountryCode: m.CountryCode,
		PostalCode:  m.PostalCode,
		Phone:       m.Phone,
		AltPhone:    m.AltPhone,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
