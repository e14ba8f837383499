package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

func validUser() map[string]any {
	return map[string]any{
		"username": "foobius",
		"password": "  s3cret<pass>  ",
		"account": map[string]any{
			"email":        "foo@example.com",
			"first_name":   "Foobius",
			"last_name":    "Barius",
			"address_one":  "1 Main St",
			"country_code": "US",
		},
	}
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, appErr.Code)
	return appErr.Fields
}

func TestValidate_UserCreate(t *testing.T) {
	v := New()

	attrs, err := v.Validate(repository.KindUser, ModeCreate, validUser())
	require.NoError(t, err)
	assert.Equal(t, "foobius", attrs["username"])
	// 密码不清洗
	assert.Equal(t, "  s3cret<pass>  ", attrs["password"])

	account, ok := attrs.Nested("account")
	require.True(t, ok)
	assert.Equal(t, "US", account["country_code"])
}

func TestValidate_UserCreateErrors(t *testing.T) {
	v := New()

	t.Run("缺少账户", func(t *testing.T) {
		raw := validUser()
		delete(raw, "account")
		_, err := v.Validate(repository.KindUser, ModeCreate, raw)
		assert.Contains(t, fieldsOf(t, err), "account")
	})

	t.Run("嵌套字段路径", func(t *testing.T) {
		raw := validUser()
		raw["account"].(map[string]any)["email"] = "not-an-email"
		raw["account"].(map[string]any)["country_code"] = "ZZ"
		_, err := v.Validate(repository.KindUser, ModeCreate, raw)
		fields := fieldsOf(t, err)
		assert.Contains(t, fields, "account.email")
		assert.Contains(t, fields, "account.country_code")
	})

	t.Run("用户名过短", func(t *testing.T) {
		raw := validUser()
		raw["username"] = "foo"
		_, err := v.Validate(repository.KindUser, ModeCreate, raw)
		assert.Equal(t, []string{"长度不能少于6个字符"}, fieldsOf(t, err)["username"])
	})

	t.Run("账户不是对象", func(t *testing.T) {
		raw := validUser()
		raw["account"] = "nope"
		_, err := v.Validate(repository.KindUser, ModeCreate, raw)
		assert.Equal(t, []string{"必须是对象"}, fieldsOf(t, err)["account"])
	})
}

func TestValidate_UpdateChecksOnlyPresentKeys(t *testing.T) {
	v := New()

	attrs, err := v.Validate(repository.KindAlbum, ModeUpdate, map[string]any{"title": "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, repository.Attributes{"title": "Renamed"}, attrs)

	_, err = v.Validate(repository.KindAlbum, ModeCreate, map[string]any{"title": "Renamed"})
	assert.Contains(t, fieldsOf(t, err), "artist_id")
}

func TestValidate_Sanitize(t *testing.T) {
	v := New()

	attrs, err := v.Validate(repository.KindArtist, ModeCreate, map[string]any{
		"name":    "<script>alert(1)</script>Tom & Jerry",
		"profile": "<b>bold</b> profile",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry", attrs["name"])
	assert.Equal(t, "bold profile", attrs["profile"])

	// 清洗后为空视为缺失
	_, err = v.Validate(repository.KindArtist, ModeCreate, map[string]any{"name": "<i></i>"})
	assert.Contains(t, fieldsOf(t, err), "name")
}

func TestValidate_Coercion(t *testing.T) {
	v := New()

	attrs, err := v.Validate(repository.KindSong, ModeCreate, map[string]any{
		"title":        "Track",
		"album_id":     float64(3),
		"track_number": float64(2),
		"unknown":      "dropped",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(3), attrs["album_id"])
	assert.Equal(t, int64(2), attrs["track_number"])
	assert.False(t, attrs.Has("unknown"))

	_, err = v.Validate(repository.KindSong, ModeCreate, map[string]any{
		"title":    "Track",
		"album_id": 1.5,
	})
	assert.Equal(t, []string{"必须是整数"}, fieldsOf(t, err)["album_id"])

	_, err = v.Validate(repository.KindSong, ModeCreate, map[string]any{
		"title":    "Track",
		"album_id": float64(0),
	})
	assert.Equal(t, []string{"必须是正整数"}, fieldsOf(t, err)["album_id"])
}

func TestValidate_DigitalAsset(t *testing.T) {
	v := New()

	attrs, err := v.Validate(repository.KindDigitalAsset, ModeCreate, map[string]any{
		"asset_type": "album",
		"asset_id":   float64(1),
		"title":      "Album (FLAC)",
		"price":      float64(999),
		"metadata":   map[string]any{"format": "flac"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(999), attrs["price"])
	assert.Equal(t, map[string]any{"format": "flac"}, attrs["metadata"])

	_, err = v.Validate(repository.KindDigitalAsset, ModeUpdate, map[string]any{
		"asset_type": "book",
		"price":      float64(-1),
	})
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "asset_type")
	assert.Equal(t, []string{"不能小于0"}, fields["price"])
}

func TestValidate_Nullable(t *testing.T) {
	v := New()

	attrs, err := v.Validate(repository.KindAccount, ModeUpdate, map[string]any{"address_two": nil})
	require.NoError(t, err)
	assert.True(t, attrs.Has("address_two"))
	assert.Nil(t, attrs["address_two"])

	_, err = v.Validate(repository.KindAccount, ModeUpdate, map[string]any{"email": nil})
	assert.Contains(t, fieldsOf(t, err), "email")
}

func TestValidate_UnknownKind(t *testing.T) {
	v := New()
	assert.False(t, v.Supports(repository.Kind("book")))
	_, err := v.Validate(repository.Kind("book"), ModeCreate, map[string]any{})
	assert.Error(t, err)
}

func TestValidate_AccountOwnerOnlyOnCreate(t *testing.T) {
	v := New()

	attrs, err := v.Validate(repository.KindAccount, ModeUpdate, map[string]any{"user_id": 7, "city": "Shelbyville"})
	require.NoError(t, err)
	assert.False(t, attrs.Has("user_id"))
	assert.Equal(t, "Shelbyville", attrs["city"])

	_, err = v.Validate(repository.KindAccount, ModeCreate, map[string]any{
		"email":        "foo@example.com",
		"address_one":  "1 Main St",
		"country_code": "US",
	})
	assert.Contains(t, fieldsOf(t, err), "user_id")
}
