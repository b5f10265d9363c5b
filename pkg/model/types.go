package model

import (
	"strconv"
	"strings"
)

// Tab represents a top-level section of the navigation tree
type Tab string

const (
	TabDatabase Tab = "DATABASE"
	TabHelp     Tab = "HELP"
	TabConsole  Tab = "CONSOLE"
	TabSettings Tab = "SETTINGS"
)

// Tabs lists the tabs in display order
var Tabs = []Tab{TabDatabase, TabHelp, TabConsole, TabSettings}

// EntityKind identifies what an Entity represents on the server
type EntityKind string

const (
	KindDatabase   EntityKind = "database"
	KindCollection EntityKind = "collection"
	KindBucket     EntityKind = "bucket"
)

// Label returns the capitalised kind name used in messages ("Database")
func (k EntityKind) Label() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Plural returns the lower-case plural used for list headers
func (k EntityKind) Plural() string {
	return string(k) + "s"
}

// IsChild reports whether entities of this kind live inside a database
func (k EntityKind) IsChild() bool {
	return k == KindCollection || k == KindBucket
}

// Connection represents an authenticated gateway connection
type Connection struct {
	ID        string   `json:"connectionId"`
	Name      string   `json:"name"`
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	Username  string   `json:"username,omitempty"`
	Databases []string `json:"databases,omitempty"`
}

// Address returns host:port
func (c Connection) Address() string {
	if c.Port == 0 {
		return c.Host
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// EntityInfo is one extra descriptor field returned by a list call
type EntityInfo struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entity is a database, collection or bucket shown in a list panel.
// Database is the parent database name for collections and buckets.
type Entity struct {
	Kind         EntityKind   `json:"kind"`
	Name         string       `json:"name"`
	ConnectionID string       `json:"connectionId"`
	Database     string       `json:"database,omitempty"`
	Info         []EntityInfo `json:"info,omitempty"`
}

// Key returns the identity of the entity. Info does not take part in identity.
func (e Entity) Key() string {
	return string(e.Kind) + "|" + e.ConnectionID + "|" + e.Database + "|" + e.Name
}

// Namespace is the dotted MongoDB name: "db" or "db.collection"
func (e Entity) Namespace() string {
	if e.Kind == KindDatabase || e.Database == "" {
		return e.Name
	}
	return e.Database + "." + e.Name
}

// SameAs compares identities; a nil other never matches
func (e Entity) SameAs(other *Entity) bool {
	return other != nil && e.Key() == other.Key()
}

// InfoValue looks up a descriptor field by key
func (e Entity) InfoValue(key string) (string, bool) {
	for _, info := range e.Info {
		if info.Key == key {
			return info.Value, true
		}
	}
	return "", false
}

// Path returns a human readable location, e.g. "shop/orders"
func (e Entity) Path() string {
	if e.Kind.IsChild() && e.Database != "" {
		return e.Database + "/" + e.Name
	}
	return e.Name
}
