package entitlement

import (
	"context"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/order"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
	"github.com/xiebiao/mediastore/pkg/logger"
	"github.com/xiebiao/mediastore/pkg/metrics"
	"github.com/xiebiao/mediastore/pkg/tracing"
)

const tracerName = "entitlement"

// Resolver 计算用户的下载清单
// 订单 → 订单行 → 多态目标 → 数字资产，结果按资产ID去重
type Resolver struct {
	orders  OrderSource
	targets TargetResolver
	assets  AssetSource
	cache   Cache
	log     logger.Interface
	group   singleflight.Group
	now     func() time.Time
}

// NewResolver 创建权益解析器，cache可以为nil
func NewResolver(orders OrderSource, targets TargetResolver, assets AssetSource, cache Cache, log logger.Interface) *Resolver {
	return &Resolver{
		orders:  orders,
		targets: targets,
		assets:  assets,
		cache:   cache,
		log:     log.Named("entitlement"),
		now:     time.Now,
	}
}

// ManifestFor 计算用户的下载清单
// 缓存中的清单只有在水位与当前一致时才会被使用；同一用户的并发计算合并为一次
func (r *Resolver) ManifestFor(ctx context.Context, userID uint) (m *Manifest, err error) {
	start := r.now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "ManifestFor")
	defer func() { tracing.EndSpan(span, err) }()

	wm, err := r.orders.Watermark(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cached := r.cached(ctx, userID, wm); cached != nil {
		metrics.RecordManifest("cache", 0)
		return cached, nil
	}

	// 合并的计算不随发起者的请求取消；水位进入key，新水位的请求不会拿到旧结果
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(flightKey(userID, wm), func() (any, error) {
		orders, err := r.orders.PaidOrdersOf(shared, userID)
		if err != nil {
			return nil, err
		}
		m, err := r.build(shared, orders)
		if err != nil {
			return nil, err
		}
		m.UserID = userID
		m.Watermark = wm
		r.store(shared, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordManifest("computed", r.now().Sub(start).Seconds())
	return v.(*Manifest), nil
}

func flightKey(userID uint, wm Watermark) string {
	return strconv.FormatUint(uint64(userID), 10) + ":" +
		strconv.FormatInt(wm.PaidOrders, 10) + ":" +
		strconv.FormatInt(wm.LastPaidAt.UnixNano(), 10) + ":" +
		strconv.FormatInt(wm.AssetCount, 10) + ":" +
		strconv.FormatInt(wm.AssetsUpdatedAt.UnixNano(), 10)
}

// ManifestForOrder 计算单个订单带来的清单，未支付订单返回空清单
func (r *Resolver) ManifestForOrder(ctx context.Context, orderID uint) (m *Manifest, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ManifestForOrder")
	defer func() { tracing.EndSpan(span, err) }()

	o, err := r.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	m, err = r.build(ctx, []*order.Order{o})
	if err != nil {
		return nil, err
	}
	m.UserID = o.UserID
	m.OrderID = o.ID
	return m, nil
}

// Invalidate 删除用户的清单缓存
func (r *Resolver) Invalidate(ctx context.Context, userID uint) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Invalidate(ctx, userID)
}

func (r *Resolver) cached(ctx context.Context, userID uint, wm Watermark) *Manifest {
	if r.cache == nil {
		return nil
	}
	m, err := r.cache.Get(ctx, userID)
	if err != nil {
		r.log.Warnw("读取清单缓存失败", "user_id", userID, "error", err)
		return nil
	}
	if m == nil || !m.Watermark.Equal(wm) {
		return nil
	}
	return m
}

func (r *Resolver) store(ctx context.Context, m *Manifest) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, m); err != nil {
		r.log.Warnw("写入清单缓存失败", "user_id", m.UserID, "error", err)
	}
}

type targetResult struct {
	assets []*asset.DigitalAsset
	reason WarningReason
	err    error
}

// build 从订单构造清单
// 非已支付订单直接跳过；目标无法解析的订单行记为完整性告警并跳过
func (r *Resolver) build(ctx context.Context, orders []*order.Order) (*Manifest, error) {
	m := &Manifest{ComputedAt: r.now()}
	seen := make(map[uint]struct{})
	memo := make(map[asset.Target]targetResult)

	for _, o := range orders {
		if !o.IsPaid() {
			continue
		}
		for _, p := range o.Products {
			res, ok := memo[p.Target]
			if !ok {
				var err error
				res, err = r.resolveTarget(ctx, p.Target)
				if err != nil {
					return nil, err
				}
				memo[p.Target] = res
			}

			if res.reason != "" {
				r.warn(m, IntegrityWarning{
					OrderID:   o.ID,
					ProductID: p.ID,
					Target:    p.Target,
					Reason:    res.reason,
					Err:       res.err,
				})
				continue
			}

			for _, a := range res.assets {
				if _, dup := seen[a.ID]; dup {
					continue
				}
				seen[a.ID] = struct{}{}
				m.Assets = append(m.Assets, a)
			}
		}
	}

	sort.Slice(m.Assets, func(i, j int) bool { return m.Assets[i].ID < m.Assets[j].ID })
	return m, nil
}

// resolveTarget 返回的error只代表存储层故障，数据问题通过reason表达
func (r *Resolver) resolveTarget(ctx context.Context, target asset.Target) (targetResult, error) {
	if _, err := r.targets.ResolveEligible(ctx, target); err != nil {
		switch {
		case apperrors.IsNotFound(err):
			return targetResult{reason: ReasonTargetMissing, err: err}, nil
		case apperrors.IsBadRequest(err):
			return targetResult{reason: ReasonUnregisteredType, err: err}, nil
		case apperrors.IsConflict(err):
			return targetResult{reason: ReasonTargetNotSellable, err: err}, nil
		default:
			return targetResult{}, err
		}
	}

	assets, err := r.assets.AssetsOf(ctx, target)
	if err != nil {
		return targetResult{}, err
	}
	if len(assets) == 0 {
		return targetResult{reason: ReasonNoAssets}, nil
	}
	return targetResult{assets: assets}, nil
}

func (r *Resolver) warn(m *Manifest, w IntegrityWarning) {
	m.Warnings = append(m.Warnings, w)
	metrics.RecordIntegrityWarning(string(w.Reason))
	r.log.Warnw("订单行的目标无法解析，已跳过",
		"order_id", w.OrderID,
		"product_id", w.ProductID,
		"asset_type", w.Target.Type,
		"asset_id", w.Target.ID,
		"reason", w.Reason,
		"error", w.Err,
	)
}
