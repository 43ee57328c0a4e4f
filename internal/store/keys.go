package store

// Keys for the shop's JSON documents. They mirror the storage slots the
// browser client used, namespaced to keep the keyspace shareable.
const (
	KeyProducts       = "shop:products"
	KeyCart           = "shop:cart"
	KeyCoupons        = "shop:coupons"
	KeySelectedCoupon = "shop:selected_coupon"
)
