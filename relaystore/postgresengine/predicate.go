package postgresengine

import (
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/nostrkit/relay-eventstore-go/relaystore"
)

const (
	sqlPrefixEquals  = "substring(? from 1 for ?) = decode(?, 'hex')"
	sqlPrefixBetween = "substring(? from 1 for ?) between decode(?, 'hex') and decode(?, 'hex')"
	sqlTagsContain   = "? @> ?::jsonb"

	// Contradiction forms. Empty ids/authors/tag sets render the grouped form,
	// taking the place of the OR-group they would otherwise have produced.
	// Empty kinds render the bare form, matching the historical rendering of a
	// membership test over the empty set. Semantically both are never true;
	// the asymmetry is kept for compatibility with existing query tooling.
	sqlContradictionGrouped = "(1 = 0)"
	sqlContradictionBare    = "1 = 0"
)

// buildFilterPredicate translates one subscription filter into a boolean
// expression tree over the event row columns.
//
// Criteria are conjoined in the order: ids, authors, kinds, since, until, tag
// filters (tag keys sorted). A nil expression with nil error means the filter
// is unconstrained and contributes no WHERE clause. An empty ids, authors or
// tag value set makes the whole filter permanently false and short-circuits
// the remaining fields.
func buildFilterPredicate(filter relaystore.Filter) (goqu.Expression, error) {
	conjuncts := make([]goqu.Expression, 0)

	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return goqu.L(sqlContradictionGrouped), nil
		}

		expr, buildErr := idsPredicate(filter.IDs)
		if buildErr != nil {
			return nil, buildErr
		}

		conjuncts = append(conjuncts, expr)
	}

	if filter.Authors != nil {
		if len(filter.Authors) == 0 {
			return goqu.L(sqlContradictionGrouped), nil
		}

		expr, buildErr := authorsPredicate(filter.Authors)
		if buildErr != nil {
			return nil, buildErr
		}

		conjuncts = append(conjuncts, expr)
	}

	if filter.Kinds != nil {
		if len(filter.Kinds) == 0 {
			conjuncts = append(conjuncts, goqu.L(sqlContradictionBare))
		} else {
			conjuncts = append(conjuncts, goqu.C(colEventKind).In(filter.Kinds))
		}
	}

	if filter.Since != nil {
		conjuncts = append(conjuncts, goqu.C(colEventCreatedAt).Gte(*filter.Since))
	}

	if filter.Until != nil {
		conjuncts = append(conjuncts, goqu.C(colEventCreatedAt).Lte(*filter.Until))
	}

	for _, tagName := range filter.TagKeys() {
		values := filter.Tags[tagName]

		if len(values) == 0 {
			return goqu.L(sqlContradictionGrouped), nil
		}

		expr, buildErr := tagPredicate(tagName, values)
		if buildErr != nil {
			return nil, buildErr
		}

		conjuncts = append(conjuncts, expr)
	}

	switch len(conjuncts) {
	case 0:
		return nil, nil
	case 1:
		return conjuncts[0], nil
	default:
		return goqu.And(conjuncts...), nil
	}
}

// idsPredicate matches the event id against any of the given hex ids or
// id prefixes.
func idsPredicate(ids []string) (goqu.Expression, error) {
	tests := make([]goqu.Expression, 0, len(ids))

	for _, id := range ids {
		prefix, buildErr := relaystore.BuildHexPrefix(id)
		if buildErr != nil {
			return nil, buildErr
		}

		tests = append(tests, hexPrefixExpression(colEventID, prefix))
	}

	return goqu.Or(tests...), nil
}

// authorsPredicate matches any of the given hex pubkeys or pubkey prefixes
// against the signer pubkey OR the delegator, so a filter on author X also
// catches events X delegated to another signer.
func authorsPredicate(authors []string) (goqu.Expression, error) {
	tests := make([]goqu.Expression, 0, len(authors))

	for _, author := range authors {
		prefix, buildErr := relaystore.BuildHexPrefix(author)
		if buildErr != nil {
			return nil, buildErr
		}

		tests = append(
			tests,
			goqu.Or(
				hexPrefixExpression(colEventPubkey, prefix),
				hexPrefixExpression(colEventDelegator, prefix),
			),
		)
	}

	return goqu.Or(tests...), nil
}

// tagPredicate matches events whose tag list contains a two-element tag
// [tagName, value] for any of the given values, via jsonb containment.
func tagPredicate(tagName string, values []string) (goqu.Expression, error) {
	tests := make([]goqu.Expression, 0, len(values))

	for _, value := range values {
		containedTag, marshalErr := json.Marshal(relaystore.Tags{{tagName, value}})
		if marshalErr != nil {
			return nil, errors.Join(relaystore.ErrBuildingQueryFailed, marshalErr)
		}

		tests = append(tests, goqu.L(sqlTagsContain, goqu.I(colEventTags), string(containedTag)))
	}

	return goqu.Or(tests...), nil
}

// hexPrefixExpression renders the predicate for one hex criterion against a
// bytea column: equality on the equal-length byte prefix for even-length hex,
// an inclusive range on the rounded-up byte prefix for odd-length hex.
func hexPrefixExpression(column string, prefix relaystore.HexPrefix) goqu.Expression {
	if prefix.IsExact() {
		return goqu.L(sqlPrefixEquals, goqu.I(column), prefix.ByteLen(), prefix.ExactHex())
	}

	lower, upper := prefix.BoundsHex()

	return goqu.L(sqlPrefixBetween, goqu.I(column), prefix.ByteLen(), lower, upper)
}
