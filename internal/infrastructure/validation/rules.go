package validation

import (
	"strings"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/repository"
)

// FieldType 字段的目标类型
type FieldType int

const (
	TypeString FieldType = iota
	TypeID               // 正整数，转换为uint
	TypeInt              // 整数，转换为int64
	TypeObject           // JSON对象，原样保留
)

// Rule 单个字段的规则
type Rule struct {
	Type     FieldType
	Tag      string // validator规则，出现时执行
	Required bool   // 创建时必须出现
	Nullable bool   // 允许null，表示清空
	Raw      bool   // 不做清洗（如密码）
	// CreateOnly 只在创建时接受，更新时与未知键一样被丢弃
	CreateOnly bool
}

// NestedRule 嵌套对象，如用户注册时的account
type NestedRule struct {
	Required bool
	Rules    *RuleSet
}

// RuleSet 一类实体的规则
type RuleSet struct {
	Fields map[string]Rule
	Nested map[string]NestedRule
}

func requiredString(tag string) Rule {
	return Rule{Type: TypeString, Tag: "required," + tag, Required: true}
}

func optionalString(tag string) Rule {
	return Rule{Type: TypeString, Tag: "omitempty," + tag}
}

func nullableString(tag string) Rule {
	return Rule{Type: TypeString, Tag: "omitempty," + tag, Nullable: true}
}

func requiredID() Rule { return Rule{Type: TypeID, Required: true} }

func optionalID() Rule { return Rule{Type: TypeID, Nullable: true} }

func nonNegative() Rule { return Rule{Type: TypeInt, Tag: "gte=0"} }

func assetTypeRule() Rule {
	tags := make([]string, 0, len(asset.Types()))
	for _, t := range asset.Types() {
		tags = append(tags, string(t))
	}
	return Rule{Type: TypeString, Tag: "required,oneof=" + strings.Join(tags, " "), Required: true}
}

// accountRules 用户注册时嵌套的account，以及账户单独修改
func accountRules() RuleSet {
	return RuleSet{Fields: map[string]Rule{
		"email":        requiredString("email,max=255"),
		"first_name":   optionalString("max=64"),
		"last_name":    optionalString("max=64"),
		"address_one":  requiredString("max=255"),
		"address_two":  nullableString("max=255"),
		"city":         optionalString("max=64"),
		"territory":    optionalString("max=64"),
		"country_code": requiredString("iso3166_1_alpha2"),
		"postal_code":  optionalString("max=64"),
		"phone":        optionalString("max=64"),
		"alt_phone":    nullableString("max=64"),
	}}
}

func defaultRules() map[repository.Kind]RuleSet {
	account := accountRules()
	standaloneAccount := accountRules()
	standaloneAccount.Fields["user_id"] = Rule{Type: TypeID, Required: true, CreateOnly: true}

	return map[repository.Kind]RuleSet{
		repository.KindArtist: {Fields: map[string]Rule{
			"name":    requiredString("max=255"),
			"profile": optionalString("max=65535"),
		}},
		repository.KindAlbum: {Fields: map[string]Rule{
			"title":     requiredString("max=255"),
			"artist_id": requiredID(),
		}},
		repository.KindGenre: {Fields: map[string]Rule{
			"name": requiredString("max=64"),
		}},
		repository.KindSong: {Fields: map[string]Rule{
			"title":        requiredString("max=255"),
			"album_id":     requiredID(),
			"track_number": {Type: TypeInt, Tag: "gte=0,lte=9999"},
		}},
		repository.KindFlacFile: {Fields: map[string]Rule{
			"song_id":    requiredID(),
			"path":       requiredString("max=500"),
			"size_bytes": nonNegative(),
			"checksum":   optionalString("hexadecimal,max=128"),
		}},
		repository.KindSku: {Fields: map[string]Rule{
			"song_id": requiredID(),
			"code":    requiredString("printascii,max=64"),
		}},
		repository.KindDigitalAsset: {Fields: map[string]Rule{
			"asset_type": assetTypeRule(),
			"asset_id":   requiredID(),
			"title":      requiredString("max=255"),
			"price":      nonNegative(),
			"metadata":   {Type: TypeObject, Nullable: true},
		}},
		repository.KindUser: {
			Fields: map[string]Rule{
				"username": requiredString("min=6,max=64"),
				// bcrypt只使用前72字节
				"password": {Type: TypeString, Tag: "required,min=8,max=72", Required: true, Raw: true},
			},
			Nested: map[string]NestedRule{
				"account": {Required: true, Rules: &account},
			},
		},
		repository.KindAccount: standaloneAccount,
		repository.KindOrder: {Fields: map[string]Rule{
			"user_id": requiredID(),
			"status":  {Type: TypeString, Tag: "oneof=pending paid cancelled"},
		}},
		repository.KindProduct: {Fields: map[string]Rule{
			"order_id":   optionalID(),
			"cart_id":    optionalID(),
			"asset_type": assetTypeRule(),
			"asset_id":   requiredID(),
			"price":      nonNegative(),
		}},
		repository.KindCart: {Fields: map[string]Rule{
			"user_id": requiredID(),
		}},
	}
}
