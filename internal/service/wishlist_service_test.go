package service

import (
	"context"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistToggle(t *testing.T) {
	fs := newFakeStore()
	svc := NewWishlistService(fs)

	user := fs.addVerifiedUser("wisher@example.com")
	product := fs.addProduct("Widget", "10.00", 5)

	ctx := context.Background()

	added, err := svc.Toggle(ctx, user.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, added.InWishlist)
	require.NotNil(t, added.Entry)
	assert.Equal(t, product.ID, added.Entry.ProductID)

	removed, err := svc.Toggle(ctx, user.ID, product.ID)
	require.NoError(t, err)
	assert.False(t, removed.InWishlist)
	assert.Nil(t, removed.Entry)

	items, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.Toggle(ctx, user.ID, 9999)
	var notFoundErr *models.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestWishlistList(t *testing.T) {
	fs := newFakeStore()
	svc := NewWishlistService(fs)

	user := fs.addVerifiedUser("lister@example.com")
	widget := fs.addProduct("Widget", "10.00", 5)
	gadget := fs.addProduct("Gadget", "5.00", 5)

	ctx := context.Background()
	_, err := svc.Toggle(ctx, user.ID, widget.ID)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, user.ID, gadget.ID)
	require.NoError(t, err)

	items, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Widget", items[0].Product.Name)
	assert.Equal(t, "Gadget", items[1].Product.Name)

	// Another user's wishlist stays empty.
	other := fs.addVerifiedUser("other@example.com")
	items, err = svc.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
