package mysql

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 设计说明：
// 1. 这里是infrastructure层的数据模型，包含GORM tag
// 2. domain层的实体不依赖GORM，仓储负责两者之间的转换
// 3. 目录与用户使用软删除；FlacFile、Sku、Genre带唯一索引，使用物理删除以便重新创建

// ArtistModel 艺人
type ArtistModel struct {
	ID        uint           `gorm:"primaryKey"`
	Name      string         `gorm:"size:255;not null;comment:艺人名"`
	Profile   string         `gorm:"type:text;comment:简介"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (ArtistModel) TableName() string { return "artists" }

// AlbumModel 专辑
type AlbumModel struct {
	ID        uint           `gorm:"primaryKey"`
	Title     string         `gorm:"size:255;not null;comment:专辑名"`
	ArtistID  uint           `gorm:"index;not null;comment:艺人ID"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (AlbumModel) TableName() string { return "albums" }

// GenreModel 流派
type GenreModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:64;not null;comment:流派名"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (GenreModel) TableName() string { return "genres" }

// AlbumGenreModel 专辑与流派的多对多中间表
type AlbumGenreModel struct {
	AlbumID   uint      `gorm:"primaryKey;autoIncrement:false;comment:专辑ID"`
	GenreID   uint      `gorm:"primaryKey;autoIncrement:false;index;comment:流派ID"`
	CreatedAt time.Time `gorm:"comment:关联时间"`
}

func (AlbumGenreModel) TableName() string { return "album_genres" }

// SongModel 单曲
type SongModel struct {
	ID          uint           `gorm:"primaryKey"`
	Title       string         `gorm:"size:255;not null;comment:曲名"`
	AlbumID     uint           `gorm:"index;not null;comment:专辑ID"`
	TrackNumber uint           `gorm:"not null;default:0;comment:曲目序号"`
	CreatedAt   time.Time      `gorm:"comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (SongModel) TableName() string { return "songs" }

// FlacFileModel 单曲的无损音频文件，song_id唯一保证1:1
type FlacFileModel struct {
	ID        uint      `gorm:"primaryKey"`
	SongID    uint      `gorm:"uniqueIndex;not null;comment:单曲ID"`
	Path      string    `gorm:"size:500;not null;comment:文件路径"`
	SizeBytes int64     `gorm:"not null;default:0;comment:文件大小"`
	Checksum  string    `gorm:"size:128;comment:校验和"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (FlacFileModel) TableName() string { return "flac_files" }

// SkuModel 单曲的销售编码，song_id与code都唯一
type SkuModel struct {
	ID        uint      `gorm:"primaryKey"`
	SongID    uint      `gorm:"uniqueIndex;not null;comment:单曲ID"`
	Code      string    `gorm:"uniqueIndex;size:64;not null;comment:SKU编码"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (SkuModel) TableName() string { return "skus" }

// UserModel 用户
type UserModel struct {
	ID          uint           `gorm:"primaryKey"`
	Username    string         `gorm:"uniqueIndex;size:64;not null;comment:用户名"`
	Password    string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	LastLoginAt *time.Time     `gorm:"comment:最后登录时间"`
	Account     *AccountModel  `gorm:"foreignKey:UserID"`
	CreatedAt   time.Time      `gorm:"comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (UserModel) TableName() string { return "users" }

// AccountModel 账户资料，user_id唯一保证1:1
type AccountModel struct {
	ID          uint           `gorm:"primaryKey"`
	UserID      uint           `gorm:"uniqueIndex;not null;comment:用户ID"`
	Email       string         `gorm:"size:255;not null;comment:邮箱"`
	FirstName   string         `gorm:"size:64;comment:名"`
	LastName    string         `gorm:"size:64;comment:姓"`
	AddressOne  string         `gorm:"size:255;not null;comment:地址1"`
	AddressTwo  *string        `gorm:"size:255;comment:地址2"`
	City        string         `gorm:"size:64;comment:城市"`
	Territory   string         `gorm:"size:64;comment:省/州"`
	CountryCode string         `gorm:"size:2;comment:国家代码"`
	PostalCode  string         `gorm:"size:64;comment:邮编"`
	Phone       string         `gorm:"size:64;comment:电话"`
	AltPhone    *string        `gorm:"size:64;comment:备用电话"`
	CreatedAt   time.Time      `gorm:"comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (AccountModel) TableName() string { return "accounts" }

// DigitalAssetModel 数字资产
// (asset_type, asset_id)是多态目标，没有外键，靠复合索引查询
type DigitalAssetModel struct {
	ID        uint              `gorm:"primaryKey"`
	Key       string            `gorm:"column:asset_key;uniqueIndex;size:36;not null;comment:对外下载标识"`
	AssetType string            `gorm:"index:idx_asset_target;size:16;not null;comment:目标类型"`
	AssetID   uint              `gorm:"index:idx_asset_target;not null;comment:目标ID"`
	Title     string            `gorm:"size:255;not null;comment:资产名"`
	Price     int64             `gorm:"not null;default:0;comment:价格(分)"`
	Metadata  datatypes.JSONMap `gorm:"comment:扩展信息"`
	CreatedAt time.Time         `gorm:"comment:创建时间"`
	UpdatedAt time.Time         `gorm:"index;comment:更新时间"`
	DeletedAt gorm.DeletedAt    `gorm:"index;comment:删除时间（软删除）"`
}

func (DigitalAssetModel) TableName() string { return "digital_assets" }

// OrderModel 订单
// 1. 与ProductModel是一对多关系
// 2. OrderNo有唯一索引(业务主键)
// 3. Status使用int存储(1待支付2已支付3已取消)
type OrderModel struct {
	ID        uint           `gorm:"primaryKey"`
	OrderNo   string         `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID    uint           `gorm:"index:idx_user_status;not null;comment:买家用户ID"`
	Status    int            `gorm:"index:idx_user_status;default:1;comment:订单状态"`
	Total     int64          `gorm:"not null;default:0;comment:订单总金额(分)"`
	PaidAt    *time.Time     `gorm:"comment:支付时间"`
	Products  []ProductModel `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string { return "orders" }

// ProductModel 订单行/购物车行
// 属于一个订单或一个购物车；结算时cart_id置空、order_id写入
type ProductModel struct {
	ID        uint      `gorm:"primaryKey"`
	OrderID   *uint     `gorm:"index;comment:订单ID"`
	CartID    *uint     `gorm:"index;comment:购物车ID"`
	AssetType string    `gorm:"index:idx_product_target;size:16;not null;comment:目标类型"`
	AssetID   uint      `gorm:"index:idx_product_target;not null;comment:目标ID"`
	Price     int64     `gorm:"not null;default:0;comment:价格快照(分)"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (ProductModel) TableName() string { return "products" }

// CartModel 购物车，每个用户一个
type CartModel struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    uint           `gorm:"uniqueIndex;not null;comment:用户ID"`
	Products  []ProductModel `gorm:"foreignKey:CartID"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
}

func (CartModel) TableName() string { return "carts" }

// allModels AutoMigrate与测试使用的模型列表
func allModels() []any {
	return []any{
		&ArtistModel{},
		&AlbumModel{},
		&GenreModel{},
		&AlbumGenreModel{},
		&SongModel{},
		&FlacFileModel{},
		&SkuModel{},
		&UserModel{},
		&AccountModel{},
		&DigitalAssetModel{},
		&OrderModel{},
		&ProductModel{},
		&CartModel{},
	}
}
