// Package orders serves the order-status views of the admin console: one
// parametrized list, search, pagination, summary and export flow shared by
// every status bucket.
package orders

import "github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"

// Bucket is one order-status view. An empty Status matches every order.
type Bucket struct {
	Key    string             `json:"key"`
	Status models.OrderStatus `json:"status"`
	Label  string             `json:"label"`
	Icon   string             `json:"icon"`
	Route  string             `json:"route"`
}

// Buckets lists the status views in display order
var Buckets = []Bucket{
	{Key: "all", Label: "All Orders", Icon: "list", Route: "/orders"},
	{Key: "pending", Status: models.StatusPending, Label: "Pending", Icon: "clock", Route: "/orders/pending"},
	{Key: "confirmed", Status: models.StatusConfirmed, Label: "Confirmed", Icon: "check", Route: "/orders/confirmed"},
	{Key: "processing", Status: models.StatusProcessing, Label: "Processing", Icon: "loader", Route: "/orders/processing"},
	{Key: "out_for_delivery", Status: models.StatusOutForDelivery, Label: "Out for Delivery", Icon: "truck", Route: "/orders/out-for-delivery"},
	{Key: "delivered", Status: models.StatusDelivered, Label: "Delivered", Icon: "package-check", Route: "/orders/delivered"},
	{Key: "cancelled", Status: models.StatusCancelled, Label: "Cancelled", Icon: "x-circle", Route: "/orders/cancelled"},
	{Key: "refunded", Status: models.StatusRefunded, Label: "Refunded", Icon: "rotate-ccw", Route: "/orders/refunded"},
	{Key: "failed", Status: models.StatusFailed, Label: "Failed to Deliver", Icon: "alert-triangle", Route: "/orders/failed"},
}

// BucketFor looks up a bucket by key. The empty key selects "all".
func BucketFor(key string) (Bucket, bool) {
	if key == "" {
		key = "all"
	}
	for _, b := range Buckets {
		if b.Key == key {
			return b, true
		}
	}
	return Bucket{}, false
}
