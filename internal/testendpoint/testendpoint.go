// Package testendpoint provides minimal endpoint.Fixed/WithID/Bulk
// implementations for exercising the coordinator and client packages
// without depending on a real gw2 API schema.
package testendpoint

import (
	"strconv"

	"github.com/greaka/gw2lib/endpoint"
)

var buildDescriptor = endpoint.Descriptor{URL: "v2/build", Version: "2022-01-01T00:00:00.000Z"}

var accountDescriptor = endpoint.Descriptor{URL: "v2/account", Version: "2022-01-01T00:00:00.000Z", Authenticated: true}

var itemDescriptor = endpoint.Descriptor{
	URL: "v2/items", Version: "2022-01-01T00:00:00.000Z",
	Locale: true, AllSupported: true, Paged: true,
}

var accountItemDescriptor = endpoint.Descriptor{
	URL: "v2/characters", Version: "2022-01-01T00:00:00.000Z",
	Authenticated: true,
}

// Build is a stand-in for a fixed, unauthenticated, locale-insensitive
// endpoint like v2/build.
type Build struct {
	ID int `json:"id"`
}

func (Build) Endpoint() endpoint.Descriptor { return buildDescriptor }

// Account is a stand-in for a fixed, authenticated endpoint like
// v2/account.
type Account struct {
	Name string `json:"name"`
}

func (Account) Endpoint() endpoint.Descriptor { return accountDescriptor }

// Item is a stand-in for an id-addressed, bulk, ids=all-capable, paged,
// locale-sensitive endpoint like v2/items.
type Item struct {
	ItemID int    `json:"id"`
	Name   string `json:"name"`
}

func (Item) Endpoint() endpoint.Descriptor { return itemDescriptor }
func (Item) EncodeID(id int) string        { return strconv.Itoa(id) }
func (Item) EncodeIDList(id int) string    { return strconv.Itoa(id) }
func (i Item) ID() int                     { return i.ItemID }

// AccountItem is a stand-in for an authenticated bulk endpoint like
// v2/characters, not locale-sensitive and without ids=all or paging.
type AccountItem struct {
	ItemID int `json:"id"`
}

func (AccountItem) Endpoint() endpoint.Descriptor { return accountItemDescriptor }
func (AccountItem) EncodeID(id int) string        { return strconv.Itoa(id) }
func (AccountItem) EncodeIDList(id int) string    { return strconv.Itoa(id) }
func (a AccountItem) ID() int                     { return a.ItemID }
