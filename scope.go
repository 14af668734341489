package settings

import "fmt"

// ScopeKind identifies the storage target class a bundle binds to.
type ScopeKind string

const (
	// ScopeSite targets site-wide options of the current installation.
	ScopeSite ScopeKind = "site"
	// ScopeNetwork targets options shared across the whole network.
	ScopeNetwork ScopeKind = "network"
	// ScopeSubSite targets one sub-site's options.
	ScopeSubSite ScopeKind = "subsite"
	// ScopeUser targets one user's meta or option store.
	ScopeUser ScopeKind = "user"
	// ScopeContentItem targets one content item's metadata.
	ScopeContentItem ScopeKind = "item"
)

// UserStorage selects which of the two per-user stores a user scope targets.
type UserStorage string

const (
	// UserMeta stores values in the user metadata table.
	UserMeta UserStorage = "meta"
	// UserOption stores values in the user option table, site-qualified
	// unless the scope is marked global.
	UserOption UserStorage = "option"
)

// Autoload is the tri-state preload hint attached to a bundle. AutoloadNone
// means the bound scope has no autoload concept.
type Autoload int

const (
	AutoloadNone Autoload = iota
	AutoloadYes
	AutoloadNo
)

// Bool reports whether the hint asks the backend to preload the row.
func (a Autoload) Bool() bool {
	return a == AutoloadYes
}

func (a Autoload) String() string {
	switch a {
	case AutoloadYes:
		return "yes"
	case AutoloadNo:
		return "no"
	default:
		return "none"
	}
}

// Scope describes one storage target. Identifier fields are meaningful only
// for the matching kind; constructors keep the combinations coherent.
type Scope struct {
	Kind        ScopeKind
	SubSiteID   int64
	UserID      int64
	UserStorage UserStorage
	// Global marks a user-option scope as network-wide rather than
	// qualified by the current sub-site.
	Global bool
	ItemID int64
}

// SiteScope targets the site-wide option store.
func SiteScope() Scope {
	return Scope{Kind: ScopeSite}
}

// NetworkScope targets the network-wide option store.
func NetworkScope() Scope {
	return Scope{Kind: ScopeNetwork}
}

// SubSiteScope targets the option store of one sub-site.
func SubSiteScope(subSiteID int64) Scope {
	return Scope{Kind: ScopeSubSite, SubSiteID: subSiteID}
}

// UserMetaScope targets one user's metadata store.
func UserMetaScope(userID int64) Scope {
	return Scope{Kind: ScopeUser, UserID: userID, UserStorage: UserMeta}
}

// UserOptionScope targets one user's option store. A non-global scope
// qualifies keys by the current sub-site.
func UserOptionScope(userID int64, global bool) Scope {
	return Scope{Kind: ScopeUser, UserID: userID, UserStorage: UserOption, Global: global}
}

// ContentItemScope targets one content item's metadata store.
func ContentItemScope(itemID int64) Scope {
	return Scope{Kind: ScopeContentItem, ItemID: itemID}
}

func (s Scope) String() string {
	switch s.Kind {
	case ScopeSite, ScopeNetwork:
		return string(s.Kind)
	case ScopeSubSite:
		return fmt.Sprintf("%s:%d", s.Kind, s.SubSiteID)
	case ScopeUser:
		label := fmt.Sprintf("%s:%d/%s", s.Kind, s.UserID, s.UserStorage)
		if s.Global {
			label += ":global"
		}
		return label
	case ScopeContentItem:
		return fmt.Sprintf("%s:%d", s.Kind, s.ItemID)
	default:
		return "unknown"
	}
}

func (s Scope) validate() error {
	switch s.Kind {
	case ScopeSite, ScopeNetwork:
		return nil
	case ScopeSubSite:
		if s.SubSiteID <= 0 {
			return fmt.Errorf("%w: sub-site id must be positive", ErrUnsupportedScope)
		}
		return nil
	case ScopeUser:
		if s.UserID <= 0 {
			return fmt.Errorf("%w: user id must be positive", ErrUnsupportedScope)
		}
		if s.UserStorage != UserMeta && s.UserStorage != UserOption {
			return fmt.Errorf("%w: user storage %q", ErrUnsupportedScope, s.UserStorage)
		}
		return nil
	case ScopeContentItem:
		if s.ItemID <= 0 {
			return fmt.Errorf("%w: item id must be positive", ErrUnsupportedScope)
		}
		return nil
	default:
		return fmt.Errorf("%w: kind %q", ErrUnsupportedScope, s.Kind)
	}
}
