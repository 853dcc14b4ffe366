package weld

import (
	"fmt"

	"github.com/xyproto/weld/internal/object"
)

// mergeRule implements the symbol merge rule table of §4.6 exactly:
// given the long-lived Symbol already stored under a name and an
// incoming declaration of the same name, it decides which one's
// content wins and, when incoming wins, copies incoming's fields onto
// existing in place — existing is never replaced by a different
// *Symbol, only updated, so every earlier alias of it (a local symbol
// table slot, a Relocation.Symbol) observes the outcome automatically.
// It returns only an error (non-nil on multiple definition); existing
// is always the surviving pointer.
func mergeRule(existing, incoming *object.Symbol) error {
	switch existing.State {
	case object.StateUndefined:
		return mergeFromUndefined(existing, incoming)
	case object.StateDefined:
		return mergeFromDefined(existing, incoming)
	case object.StateCommon:
		return mergeFromCommon(existing, incoming)
	default:
		adopt(existing, incoming)
		return nil
	}
}

// adopt overwrites existing's content with incoming's, preserving
// existing's identity. Name is left untouched: both sides name the
// same symbol by construction (mergeRule is only ever called for a
// collision on one name).
func adopt(existing, incoming *object.Symbol) {
	existing.Binding = incoming.Binding
	existing.Type = incoming.Type
	existing.State = incoming.State
	existing.Source = incoming.Source
	existing.DefObject = incoming.DefObject
	existing.DefSection = incoming.DefSection
	existing.Offset = incoming.Offset
	existing.Size = incoming.Size
	existing.Align = incoming.Align
	existing.Absolute = incoming.Absolute
	existing.Addr = incoming.Addr
}

func mergeFromUndefined(existing, incoming *object.Symbol) error {
	if incoming.State == object.StateUndefined {
		// Neither side has a definition yet. A plain (non-weak)
		// undefined reference makes the requirement mandatory even if
		// the existing entry was only weakly undefined.
		if existing.Binding == object.BindWeak && incoming.Binding != object.BindWeak {
			existing.Binding = incoming.Binding
		}
		return nil
	}
	// UNDEFINED | anything -> take incoming.
	// WEAK UNDEFINED | DEFINED/COMMON -> take incoming.
	adopt(existing, incoming)
	return nil
}

func mergeFromDefined(existing, incoming *object.Symbol) error {
	switch incoming.State {
	case object.StateUndefined:
		// A later reference to an already-defined symbol adds no new
		// information.
		return nil
	case object.StateCommon:
		// DEFINED | COMMON -> keep existing.
		return nil
	default: // StateDefined
		existingStrong := existing.Binding != object.BindWeak
		incomingStrong := incoming.Binding != object.BindWeak
		switch {
		case existingStrong && incomingStrong:
			return fmt.Errorf("multiple definition of %q", existing.Name)
		case existingStrong && !incomingStrong:
			return nil // DEFINED GLOBAL | DEFINED WEAK -> keep existing
		case !existingStrong && incomingStrong:
			adopt(existing, incoming) // DEFINED WEAK | DEFINED GLOBAL -> replace
			return nil
		default:
			return nil // DEFINED WEAK | DEFINED WEAK -> prefer-first
		}
	}
}

func mergeFromCommon(existing, incoming *object.Symbol) error {
	switch incoming.State {
	case object.StateUndefined:
		return nil
	case object.StateDefined:
		// COMMON | DEFINED -> take incoming.
		adopt(existing, incoming)
		return nil
	default: // StateCommon
		align := existing.Align
		if incoming.Align > align {
			align = incoming.Align
		}
		if incoming.Size > existing.Size {
			adopt(existing, incoming)
		}
		existing.Align = align
		return nil
	}
}
