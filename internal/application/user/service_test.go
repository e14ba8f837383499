package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/domain/user"
	"github.com/xiebiao/mediastore/internal/infrastructure/validation"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// userRepo 只记录写入的属性
type userRepo struct {
	created repository.Attributes
	updated repository.Attributes
}

func (r *userRepo) Kind() repository.Kind { return repository.KindUser }

func (r *userRepo) FindByID(_ context.Context, id uint) (*user.User, error) {
	return &user.User{ID: id}, nil
}

func (r *userRepo) Create(_ context.Context, attrs repository.Attributes) (*user.User, error) {
	r.created = attrs
	return &user.User{ID: 1, Username: attrs["username"].(string), Password: attrs["password"].(string)}, nil
}

func (r *userRepo) Update(_ context.Context, id uint, attrs repository.Attributes) (*user.User, error) {
	r.updated = attrs
	return &user.User{ID: id}, nil
}

func (r *userRepo) Delete(context.Context, uint) error { return nil }

func (r *userRepo) List(context.Context, int, int) ([]*user.User, int64, error) {
	return nil, 0, nil
}

func registration() map[string]any {
	return map[string]any{
		"username": "foobius",
		"password": "secretsauce",
		"account": map[string]any{
			"email":        "foo@example.com",
			"address_one":  "1 Main St",
			"country_code": "GB",
		},
	}
}

func TestService_RegisterHashesPassword(t *testing.T) {
	repo := &userRepo{}
	hasher := user.NewPasswordHasher(bcrypt.MinCost)
	svc := NewService(repo, validation.New(), hasher)

	u, err := svc.Create(context.Background(), registration())
	require.NoError(t, err)

	assert.NotEqual(t, "secretsauce", u.Password)
	assert.NoError(t, hasher.Verify(u.Password, "secretsauce"))

	account, ok := repo.created.Nested("account")
	require.True(t, ok)
	assert.Equal(t, "foo@example.com", account["email"])
}

func TestService_RegisterInvalid(t *testing.T) {
	repo := &userRepo{}
	svc := NewService(repo, validation.New(), user.NewPasswordHasher(bcrypt.MinCost))

	raw := registration()
	raw["password"] = "short"
	delete(raw["account"].(map[string]any), "email")

	_, err := svc.Create(context.Background(), raw)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "password")
	assert.Contains(t, appErr.Fields, "account.email")
	assert.Nil(t, repo.created)
}

func TestService_UpdateRehashesOnlyWhenPresent(t *testing.T) {
	repo := &userRepo{}
	hasher := user.NewPasswordHasher(bcrypt.MinCost)
	svc := NewService(repo, validation.New(), hasher)
	ctx := context.Background()

	_, err := svc.Update(ctx, 1, map[string]any{"username": "barius99"})
	require.NoError(t, err)
	assert.False(t, repo.updated.Has("password"))

	_, err = svc.Update(ctx, 1, map[string]any{"password": "newsecret"})
	require.NoError(t, err)
	assert.NoError(t, hasher.Verify(repo.updated["password"].(string), "newsecret"))
}
