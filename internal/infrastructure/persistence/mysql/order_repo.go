package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/entitlement"
	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// NewOrderRepository 订单的通用仓储
// 1. 创建时生成订单号，状态为待支付
// 2. 只能修改status，且必须是合法的状态流转；流转到已支付时写入paid_at
// 3. 已支付订单不可修改、不可删除；删除未支付订单时一并删除其订单行
func NewOrderRepository(db *gorm.DB) order.Repository {
	return newCRUDRepository(db, schema[order.Order, OrderModel]{
		kind: repository.KindOrder,
		fields: fields[OrderModel]{
			"user_id": uintField("user_id", func(m *OrderModel) *uint { return &m.UserID }),
			"status":  statusField(),
		},
		refs: []reference[OrderModel]{
			{key: "user_id", kind: repository.KindUser, model: &UserModel{}, value: func(m *OrderModel) uint { return m.UserID }},
		},
		preload:  []string{"Products"},
		toEntity: toOrderEntity,
		beforeCreate: func(ctx context.Context, db *gorm.DB, m *OrderModel) error {
			if m.Status != 0 && order.OrderStatus(m.Status) != order.OrderStatusPending {
				return order.ErrInvalidStatusTransition.WithCause(fmt.Errorf("new order as %s", order.OrderStatus(m.Status)))
			}
			m.Status = int(order.OrderStatusPending)
			m.OrderNo = order.GenerateOrderNo()
			m.PaidAt = nil
			return nil
		},
		beforeUpdate: func(ctx context.Context, db *gorm.DB, cur *OrderModel, attrs repository.Attributes) error {
			if attrs.Has("user_id") {
				return apperrors.Newf(apperrors.ErrCodeImmutable, "订单 %d 的买家不可修改", cur.ID)
			}
			return guardPaidOrder(cur)
		},
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *OrderModel) error {
			if err := guardPaidOrder(cur); err != nil {
				return err
			}
			if err := db.Where("order_id = ?", cur.ID).Delete(&ProductModel{}).Error; err != nil {
				return apperrors.Wrap(err, "删除订单行失败")
			}
			return nil
		},
	})
}

// statusField 订单状态，接受状态名或数字
func statusField() field[OrderModel] {
	return field[OrderModel]{column: "status", extra: []string{"paid_at"}, set: func(m *OrderModel, v any) error {
		var next order.OrderStatus
		if s, ok := v.(string); ok {
			parsed, err := order.ParseOrderStatus(s)
			if err != nil {
				return err
			}
			next = parsed
		} else {
			n, err := coerce[int64]("status", v)
			if err != nil {
				return err
			}
			next = order.OrderStatus(n)
			if !next.IsValid() {
				return order.ErrInvalidStatus.WithCause(fmt.Errorf("status %d", n))
			}
		}

		// 新建订单时m.Status为0，由beforeCreate处理
		if m.ID != 0 {
			if !order.CanTransition(order.OrderStatus(m.Status), next) {
				return order.ErrInvalidStatusTransition.WithCause(fmt.Errorf("%s -> %s", order.OrderStatus(m.Status), next))
			}
			if next == order.OrderStatusPaid {
				now := time.Now()
				m.PaidAt = &now
			}
		}
		m.Status = int(next)
		return nil
	}}
}

func guardPaidOrder(m *OrderModel) error {
	if order.OrderStatus(m.Status) == order.OrderStatusPaid {
		return order.ErrOrderImmutable.WithCause(fmt.Errorf("order %d", m.ID))
	}
	return nil
}

// NewProductRepository 订单行的通用仓储
// 1. 订单行必须属于一个订单或购物车，目标必须带有数字资产
// 2. 已支付订单的订单行不可修改、不可删除
// 3. 归属(order_id/cart_id)创建后不可修改，订单行只能经由结算从购物车移入订单
func NewProductRepository(db *gorm.DB) order.ProductRepository {
	return newCRUDRepository(db, schema[order.Product, ProductModel]{
		kind: repository.KindProduct,
		fields: fields[ProductModel]{
			"order_id":   nullableUintField("order_id", func(m *ProductModel) **uint { return &m.OrderID }),
			"cart_id":    nullableUintField("cart_id", func(m *ProductModel) **uint { return &m.CartID }),
			"asset_type": assetTypeField(func(m *ProductModel) *string { return &m.AssetType }),
			"asset_id":   uintField("asset_id", func(m *ProductModel) *uint { return &m.AssetID }),
			"price":      int64Field("price", func(m *ProductModel) *int64 { return &m.Price }),
		},
		refs: []reference[ProductModel]{
			{key: "order_id", kind: repository.KindOrder, model: &OrderModel{}, value: func(m *ProductModel) uint { return derefUint(m.OrderID) }, optional: true},
			{key: "cart_id", kind: repository.KindCart, model: &CartModel{}, value: func(m *ProductModel) uint { return derefUint(m.CartID) }, optional: true},
		},
		toEntity: toProductEntity,
		beforeCreate: func(ctx context.Context, db *gorm.DB, m *ProductModel) error {
			if (m.OrderID == nil) == (m.CartID == nil) {
				return order.ErrOrphanProduct
			}
			if m.OrderID != nil {
				if err := guardPaidOrderID(ctx, db, *m.OrderID); err != nil {
					return err
				}
			}
			target, err := asset.NewTarget(m.AssetType, m.AssetID)
			if err != nil {
				return err
			}
			total, err := requireAssets(ctx, db, target)
			if err != nil {
				return err
			}
			if m.Price == 0 {
				m.Price = total
			}
			return nil
		},
		beforeUpdate: func(ctx context.Context, db *gorm.DB, cur *ProductModel, attrs repository.Attributes) error {
			if attrs.Has("asset_type") || attrs.Has("asset_id") {
				return apperrors.Newf(apperrors.ErrCodeImmutable, "订单行 %d 的目标不可修改", cur.ID)
			}
			if attrs.Has("order_id") || attrs.Has("cart_id") {
				return order.ErrProductOwnerImmutable.WithCause(fmt.Errorf("product %d", cur.ID))
			}
			if cur.OrderID != nil {
				return guardPaidOrderID(ctx, db, *cur.OrderID)
			}
			return nil
		},
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *ProductModel) error {
			if cur.OrderID != nil {
				return guardPaidOrderID(ctx, db, *cur.OrderID)
			}
			return nil
		},
	})
}

// NewCartRepository 购物车的通用仓储，删除时一并删除购物车行
func NewCartRepository(db *gorm.DB) order.CartRepository {
	return newCRUDRepository(db, schema[order.Cart, CartModel]{
		kind: repository.KindCart,
		fields: fields[CartModel]{
			"user_id": uintField("user_id", func(m *CartModel) *uint { return &m.UserID }),
		},
		refs: []reference[CartModel]{
			{key: "user_id", kind: repository.KindUser, model: &UserModel{}, value: func(m *CartModel) uint { return m.UserID }},
		},
		preload:  []string{"Products"},
		toEntity: toCartEntity,
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *CartModel) error {
			if err := db.Where("cart_id = ?", cur.ID).Delete(&ProductModel{}).Error; err != nil {
				return apperrors.Wrap(err, "删除购物车行失败")
			}
			return nil
		},
	})
}

func guardPaidOrderID(ctx context.Context, db *gorm.DB, orderID uint) error {
	var m OrderModel
	if err := getDB(ctx, db).Select("id", "status").First(&m, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return referenceNotFound(repository.KindOrder.String(), orderID)
		}
		return apperrors.Wrap(err, "查询订单失败")
	}
	return guardPaidOrder(&m)
}

// requireAssets 目标必须至少有一个数字资产，返回资产总价
func requireAssets(ctx context.Context, db *gorm.DB, target asset.Target) (int64, error) {
	var row struct {
		N     int64
		Total int64
	}
	err := getDB(ctx, db).Model(&DigitalAssetModel{}).
		Select("COUNT(*) AS n, COALESCE(SUM(price), 0) AS total").
		Where("asset_type = ? AND asset_id = ?", string(target.Type), target.ID).
		Scan(&row).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "查询数字资产失败")
	}
	if row.N == 0 {
		return 0, asset.ErrTargetHasNoAssets.WithCause(fmt.Errorf("%s", target))
	}
	return row.Total, nil
}

// =========================================
// orderStore: 订单聚合的专用读写
// =========================================

// orderStore 实现order.Store与entitlement.OrderSource
type orderStore struct {
	db *gorm.DB
}

// OrderStore 订单专用读写的组合接口
type OrderStore interface {
	order.Store
	entitlement.OrderSource
}

// NewOrderStore 创建订单存储
func NewOrderStore(db *gorm.DB) OrderStore {
	return &orderStore{db: db}
}

// FindByOrderNo 根据订单号查找订单
func (s *orderStore) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model OrderModel
	err := getDB(ctx, s.db).Preload("Products").Where("order_no = ?", orderNo).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrCodeNotFound, "订单 %s 不存在", orderNo)
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// ListByUserID 查询用户的订单列表
func (s *orderStore) ListByUserID(ctx context.Context, userID uint, page, pageSize int) ([]*order.Order, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	if err := getDB(ctx, s.db).Model(&OrderModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	var models []OrderModel
	err := getDB(ctx, s.db).Preload("Products").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	return toOrderEntities(models), total, nil
}

// Place 写入订单，并把购物车中的行移入订单
// 必须在事务中调用：订单与订单行同时可见
func (s *orderStore) Place(ctx context.Context, o *order.Order, cartID uint) error {
	if len(o.Products) == 0 {
		return order.ErrEmptyCart
	}
	db := getDB(ctx, s.db)

	model := &OrderModel{
		OrderNo: o.OrderNo,
		UserID:  o.UserID,
		Status:  int(o.Status),
		Total:   o.Total,
	}
	if err := db.Omit("Products").Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.Duplicate(repository.KindOrder.String(), err)
		}
		return apperrors.Wrap(err, "创建订单失败")
	}

	// 只移动结算时看到的行，保证订单总额与订单行一致
	ids := make([]uint, len(o.Products))
	for i, p := range o.Products {
		ids[i] = p.ID
	}
	result := db.Model(&ProductModel{}).
		Where("cart_id = ? AND id IN ?", cartID, ids).
		Updates(map[string]any{"order_id": model.ID, "cart_id": nil})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "移动购物车行失败")
	}
	if result.RowsAffected != int64(len(ids)) {
		return order.ErrCartChanged
	}

	var products []ProductModel
	if err := db.Where("order_id = ?", model.ID).Order("id ASC").Find(&products).Error; err != nil {
		return apperrors.Wrap(err, "查询订单行失败")
	}

	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	o.Products = toProducts(products)
	return nil
}

// PaidOrdersOf 用户的已支付订单（含订单行），按ID升序
func (s *orderStore) PaidOrdersOf(ctx context.Context, userID uint) ([]*order.Order, error) {
	var models []OrderModel
	err := getDB(ctx, s.db).Preload("Products").
		Where("user_id = ? AND status = ?", userID, int(order.OrderStatusPaid)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询已支付订单失败")
	}
	return toOrderEntities(models), nil
}

// FindOrder 根据ID查找订单（含订单行）
func (s *orderStore) FindOrder(ctx context.Context, orderID uint) (*order.Order, error) {
	var model OrderModel
	if err := getDB(ctx, s.db).Preload("Products").First(&model, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(repository.KindOrder.String(), orderID)
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// Watermark 用户的清单水位
// 已支付订单数量 + 最近支付时间 + 数字资产数量 + 数字资产最近更新时间
// 已支付订单不可修改也不可删除，每次支付都会使数量加一
func (s *orderStore) Watermark(ctx context.Context, userID uint) (entitlement.Watermark, error) {
	db := getDB(ctx, s.db)
	var wm entitlement.Watermark

	paid := db.Model(&OrderModel{}).Where("user_id = ? AND status = ?", userID, int(order.OrderStatusPaid))
	if err := paid.Count(&wm.PaidOrders).Error; err != nil {
		return wm, apperrors.Wrap(err, "查询已支付订单失败")
	}

	var last OrderModel
	err := db.Select("id", "paid_at").
		Where("user_id = ? AND status = ?", userID, int(order.OrderStatusPaid)).
		Order("paid_at DESC, id DESC").
		Limit(1).
		Find(&last).Error
	if err != nil {
		return wm, apperrors.Wrap(err, "查询已支付订单失败")
	}
	if last.PaidAt != nil {
		wm.LastPaidAt = *last.PaidAt
	}

	if err := db.Model(&DigitalAssetModel{}).Count(&wm.AssetCount).Error; err != nil {
		return wm, apperrors.Wrap(err, "查询数字资产数量失败")
	}

	var latest DigitalAssetModel
	err = db.Unscoped().Select("id", "updated_at", "deleted_at").
		Order("updated_at DESC, id DESC").
		Limit(1).
		Find(&latest).Error
	if err != nil {
		return wm, apperrors.Wrap(err, "查询数字资产更新时间失败")
	}
	wm.AssetsUpdatedAt = latest.UpdatedAt
	if latest.DeletedAt.Valid && latest.DeletedAt.Time.After(wm.AssetsUpdatedAt) {
		wm.AssetsUpdatedAt = latest.DeletedAt.Time
	}
	return wm, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func derefUint(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}

func toOrderEntity(m *OrderModel) *order.Order {
	return &order.Order{
		ID:        m.ID,
		OrderNo:   m.OrderNo,
		UserID:    m.UserID,
		Status:    order.OrderStatus(m.Status),
		Total:     m.Total,
		Products:  toProducts(m.Products),
		PaidAt:    m.PaidAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toOrderEntities(models []OrderModel) []*order.Order {
	out := make([]*order.Order, len(models))
	for i := range models {
		out[i] = toOrderEntity(&models[i])
	}
	return out
}

func toProductEntity(m *ProductModel) *order.Product {
	return &order.Product{
		ID:        m.ID,
		OrderID:   m.OrderID,
		CartID:    m.CartID,
		Target:    asset.Target{Type: asset.Type(m.AssetType), ID: m.AssetID},
		Price:     m.Price,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toProducts(models []ProductModel) []order.Product {
	out := make([]order.Product, len(models))
	for i := range models {
		out[i] = *toProductEntity(&models[i])
	}
	return out
}

func toCartEntity(m *CartModel) *order.Cart {
	return &order.Cart{
		ID:        m.ID,
		UserID:    m.UserID,
		Products:  toProducts(m.Products),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
