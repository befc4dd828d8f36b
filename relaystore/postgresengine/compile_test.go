package postgresengine_test

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nostrkit/relay-eventstore-go/relaystore"
	"github.com/nostrkit/relay-eventstore-go/relaystore/postgresengine"
	"github.com/nostrkit/relay-eventstore-go/testutil/config"
)

var (
	testEventID   = strings.Repeat("ab", 32)
	testPubKey    = strings.Repeat("cd", 32)
	testDelegator = strings.Repeat("12", 32)
	testSig       = strings.Repeat("ef", 64)
)

// newCompileOnlyStore builds a store over an unconnected sql.DB; the compile
// methods never touch the database.
func newCompileOnlyStore(t *testing.T, options ...postgresengine.Option) postgresengine.EventStore {
	t.Helper()

	db, err := sql.Open("postgres", config.PostgresSingleDSN())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := postgresengine.NewEventStoreFromSQLDB(db, options...)
	require.NoError(t, err)

	return store
}

func ptrInt64(v int64) *int64 { return &v }
func ptrUint(v uint) *uint    { return &v }

func Test_CompileQuery_RequiresAtLeastOneFilter(t *testing.T) {
	store := newCompileOnlyStore(t)

	_, err := store.CompileQuery(nil)
	assert.ErrorIs(t, err, relaystore.ErrNoFiltersSupplied)

	_, err = store.CompileQuery(relaystore.Filters{})
	assert.ErrorIs(t, err, relaystore.ErrNoFiltersSupplied)
}

func Test_CompileQuery_UnconstrainedFilter_HasNoWhereClause(t *testing.T) {
	store := newCompileOnlyStore(t)

	query, err := store.CompileQuery(relaystore.Filters{{}})
	require.NoError(t, err)

	sqlText := query.SQL()
	assert.NotContains(t, sqlText, "WHERE")
	assert.Contains(t, sqlText, `FROM "events"`)
	assert.Contains(t, sqlText, `"event_id"`)
	assert.Contains(t, sqlText, `"event_tags"`)
	assert.True(t, strings.HasSuffix(sqlText, `ORDER BY "event_created_at" ASC`), sqlText)
}

func Test_CompileQuery_IDCriteria(t *testing.T) {
	store := newCompileOnlyStore(t)

	tests := []struct {
		name             string
		ids              []string
		expectedFragment string
	}{
		{
			name:             "full_id_exact_byte_equality",
			ids:              []string{testEventID},
			expectedFragment: `substring("event_id" from 1 for 32) = decode('` + testEventID + `', 'hex')`,
		},
		{
			name:             "even_prefix_exact_byte_equality",
			ids:              []string{"abcd"},
			expectedFragment: `substring("event_id" from 1 for 2) = decode('abcd', 'hex')`,
		},
		{
			name:             "odd_prefix_inclusive_range",
			ids:              []string{"abc"},
			expectedFragment: `substring("event_id" from 1 for 2) between decode('abc0', 'hex') and decode('abcf', 'hex')`,
		},
		{
			name:             "uppercase_input_is_normalized",
			ids:              []string{"ABCD"},
			expectedFragment: `substring("event_id" from 1 for 2) = decode('abcd', 'hex')`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, err := store.CompileQuery(relaystore.Filters{{IDs: tc.ids}})

			require.NoError(t, err)
			assert.Contains(t, query.SQL(), tc.expectedFragment)
		})
	}
}

func Test_CompileQuery_MultipleIDs_AreORed(t *testing.T) {
	store := newCompileOnlyStore(t)

	query, err := store.CompileQuery(relaystore.Filters{{IDs: []string{"aa", "bb"}}})
	require.NoError(t, err)

	sqlText := query.SQL()
	assert.Contains(t, sqlText, `decode('aa', 'hex')`)
	assert.Contains(t, sqlText, `decode('bb', 'hex')`)
	assert.Contains(t, sqlText, " OR ")
}

func Test_CompileQuery_MalformedHexFailsCompilation(t *testing.T) {
	store := newCompileOnlyStore(t)

	tests := []struct {
		name   string
		filter relaystore.Filter
	}{
		{name: "malformed_id", filter: relaystore.Filter{IDs: []string{"xyz"}}},
		{name: "malformed_author", filter: relaystore.Filter{Authors: []string{"not hex"}}},
		{name: "one_bad_value_among_good_ones", filter: relaystore.Filter{IDs: []string{"abcd", "zz"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.CompileQuery(relaystore.Filters{tc.filter})

			assert.ErrorIs(t, err, relaystore.ErrMalformedHexValue)
		})
	}
}

func Test_CompileQuery_AuthorsMatchPubkeyOrDelegator(t *testing.T) {
	store := newCompileOnlyStore(t)

	query, err := store.CompileQuery(relaystore.Filters{{Authors: []string{"abcd"}}})
	require.NoError(t, err)

	sqlText := query.SQL()
	assert.Contains(t, sqlText, `substring("event_pubkey" from 1 for 2) = decode('abcd', 'hex')`)
	assert.Contains(t, sqlText, `substring("event_delegator" from 1 for 2) = decode('abcd', 'hex')`)
	assert.Contains(t, sqlText, " OR ")
}

func Test_CompileQuery_KindsAndTimeRange(t *testing.T) {
	store := newCompileOnlyStore(t)

	query, err := store.CompileQuery(relaystore.Filters{{
		Kinds: []int{1, 7},
		Since: ptrInt64(1700000000),
		Until: ptrInt64(1700003600),
	}})
	require.NoError(t, err)

	sqlText := query.SQL()
	assert.Contains(t, sqlText, `"event_kind" IN (1, 7)`)
	assert.Contains(t, sqlText, `"event_created_at" >= 1700000000`)
	assert.Contains(t, sqlText, `"event_created_at" <= 1700003600`)
	assert.Contains(t, sqlText, " AND ")
}

func Test_CompileQuery_TagCriteria(t *testing.T) {
	store := newCompileOnlyStore(t)

	t.Run("single_value_containment", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{
			Tags: relaystore.TagFilters{"e": {testEventID}},
		}})
		require.NoError(t, err)

		assert.Contains(t, query.SQL(), `"event_tags" @> '[["e","`+testEventID+`"]]'::jsonb`)
	})

	t.Run("multiple_values_are_ORed", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{
			Tags: relaystore.TagFilters{"p": {"aa", "bb"}},
		}})
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText, `'[["p","aa"]]'::jsonb`)
		assert.Contains(t, sqlText, `'[["p","bb"]]'::jsonb`)
		assert.Contains(t, sqlText, " OR ")
	})

	t.Run("tag_keys_compile_in_sorted_order", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{
			Tags: relaystore.TagFilters{"t": {"topic"}, "e": {"aa"}},
		}})
		require.NoError(t, err)

		sqlText := query.SQL()
		posE := strings.Index(sqlText, `[["e","aa"]]`)
		posT := strings.Index(sqlText, `[["t","topic"]]`)
		require.GreaterOrEqual(t, posE, 0)
		require.GreaterOrEqual(t, posT, 0)
		assert.Less(t, posE, posT)
	})
}

func Test_CompileQuery_Contradictions(t *testing.T) {
	store := newCompileOnlyStore(t)

	t.Run("empty_ids_render_grouped_contradiction", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{
			IDs:   []string{},
			Kinds: []int{1},
		}})
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText, "(1 = 0)")
		// The contradiction short-circuits the remaining criteria.
		assert.NotContains(t, sqlText, "event_kind")
	})

	t.Run("empty_authors_render_grouped_contradiction", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{Authors: []string{}}})
		require.NoError(t, err)

		assert.Contains(t, query.SQL(), "(1 = 0)")
	})

	t.Run("empty_tag_values_render_grouped_contradiction", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{
			Tags: relaystore.TagFilters{"e": {}},
		}})
		require.NoError(t, err)

		assert.Contains(t, query.SQL(), "(1 = 0)")
	})

	t.Run("empty_kinds_render_bare_contradiction", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{Kinds: []int{}}})
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText, "WHERE 1 = 0")
		assert.NotContains(t, sqlText, "(1 = 0)")
	})

	t.Run("empty_kinds_conjoin_with_other_criteria", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{
			Kinds: []int{},
			Since: ptrInt64(100),
		}})
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText, "1 = 0")
		assert.Contains(t, sqlText, `"event_created_at" >= 100`)
	})
}

func Test_CompileQuery_Limit(t *testing.T) {
	store := newCompileOnlyStore(t)

	t.Run("limited_filter_selects_most_recent_rows", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{
			Kinds: []int{1},
			Limit: ptrUint(10),
		}})
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(query.SQL(), `ORDER BY "event_created_at" DESC LIMIT 10`), query.SQL())
	})

	t.Run("unlimited_filter_replays_in_creation_order", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{Kinds: []int{1}}})
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(query.SQL(), `ORDER BY "event_created_at" ASC`), query.SQL())
		assert.NotContains(t, query.SQL(), "LIMIT")
	})

	t.Run("zero_limit_selects_nothing", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{Limit: ptrUint(0)}})
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText, "(1 = 0)")
		assert.True(t, strings.HasSuffix(sqlText, `ORDER BY "event_created_at" DESC`), sqlText)
		assert.NotContains(t, sqlText, "LIMIT")
	})

	t.Run("zero_limit_overrides_matching_criteria", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{
			Kinds: []int{1},
			Limit: ptrUint(0),
		}})
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText, `"event_kind" IN (1)`)
		assert.Contains(t, sqlText, "(1 = 0)")
		assert.NotContains(t, sqlText, "LIMIT")
	})
}

func Test_CompileQuery_MultipleFilters_Union(t *testing.T) {
	store := newCompileOnlyStore(t)

	t.Run("single_filter_has_no_union", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{{Kinds: []int{1}}})
		require.NoError(t, err)

		assert.NotContains(t, query.SQL(), "UNION")
	})

	t.Run("two_filters_union_with_outer_ascending_order", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{
			{Kinds: []int{1}},
			{Kinds: []int{7}},
		})
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText, "UNION")
		assert.Contains(t, sqlText, `"event_kind" IN (1)`)
		assert.Contains(t, sqlText, `"event_kind" IN (7)`)
		assert.True(t, strings.HasSuffix(sqlText, `ORDER BY "event_created_at" ASC`), sqlText)
	})

	t.Run("limited_sub_query_keeps_its_limit_inside_the_union", func(t *testing.T) {
		query, err := store.CompileQuery(relaystore.Filters{
			{Kinds: []int{1}, Limit: ptrUint(5)},
			{Kinds: []int{7}},
		})
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText, `ORDER BY "event_created_at" DESC LIMIT 5`)
		assert.True(t, strings.HasSuffix(sqlText, `ORDER BY "event_created_at" ASC`), sqlText)
	})
}

func Test_CompileQuery_Deterministic(t *testing.T) {
	store := newCompileOnlyStore(t)

	filters := relaystore.Filters{
		{
			IDs:     []string{"abcd", "ef"},
			Authors: []string{testPubKey},
			Kinds:   []int{1, 7},
			Since:   ptrInt64(1700000000),
			Tags:    relaystore.TagFilters{"p": {"aa"}, "e": {"bb"}, "t": {"cc"}},
		},
		{Kinds: []int{0}, Limit: ptrUint(1)},
	}

	first, err := store.CompileQuery(filters)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		next, compileErr := store.CompileQuery(filters)
		require.NoError(t, compileErr)
		assert.Equal(t, first.SQL(), next.SQL())
	}
}

func Test_CompileQuery_ConjunctionOrder(t *testing.T) {
	store := newCompileOnlyStore(t)

	query, err := store.CompileQuery(relaystore.Filters{{
		IDs:     []string{"aa"},
		Authors: []string{"bb"},
		Kinds:   []int{1},
		Since:   ptrInt64(100),
		Until:   ptrInt64(200),
		Tags:    relaystore.TagFilters{"e": {"cc"}},
	}})
	require.NoError(t, err)

	sqlText := query.SQL()
	positions := []int{
		strings.Index(sqlText, `"event_id"`),
		strings.Index(sqlText, `"event_pubkey"`),
		strings.Index(sqlText, `"event_kind" IN`),
		strings.Index(sqlText, `"event_created_at" >=`),
		strings.Index(sqlText, `"event_created_at" <=`),
		strings.Index(sqlText, `@>`),
	}

	for i := 1; i < len(positions); i++ {
		require.GreaterOrEqual(t, positions[i], 0, sqlText)
		assert.Less(t, positions[i-1], positions[i], sqlText)
	}
}

func Test_InsertQuery(t *testing.T) {
	store := newCompileOnlyStore(t)

	t.Run("idempotent_insert_with_deterministic_column_order", func(t *testing.T) {
		event, err := relaystore.BuildEvent(
			testEventID, testPubKey, 1700000000, 1,
			relaystore.Tags{{"e", testEventID}},
			"hello", testSig,
		)
		require.NoError(t, err)

		query, err := store.InsertQuery(event)
		require.NoError(t, err)

		sqlText := query.SQL()
		assert.Contains(t, sqlText,
			`INSERT INTO "events" ("event_content", "event_created_at", "event_delegator", "event_id", "event_kind", "event_pubkey", "event_sig", "event_tags")`)
		assert.Contains(t, sqlText, `decode('`+testEventID+`', 'hex')`)
		assert.Contains(t, sqlText, `decode('`+testPubKey+`', 'hex')`)
		assert.Contains(t, sqlText, `decode('`+testSig+`', 'hex')`)
		assert.Contains(t, sqlText, `'[["e","`+testEventID+`"]]'::jsonb`)
		assert.Contains(t, sqlText, "ON CONFLICT DO NOTHING")
		// No delegation tag, so the delegator column is NULL.
		assert.Contains(t, sqlText, "NULL")
	})

	t.Run("delegated_event_stores_the_delegator", func(t *testing.T) {
		event, err := relaystore.BuildEvent(
			testEventID, testPubKey, 1700000000, 1,
			relaystore.Tags{{"delegation", testDelegator, "kind=1", testSig}},
			"", testSig,
		)
		require.NoError(t, err)

		query, err := store.InsertQuery(event)
		require.NoError(t, err)

		assert.Contains(t, query.SQL(), `decode('`+testDelegator+`', 'hex')`)
		assert.NotContains(t, query.SQL(), "NULL")
	})

	t.Run("invalid_event_fails_before_any_sql_is_built", func(t *testing.T) {
		_, err := store.InsertQuery(relaystore.Event{ID: "short"})

		assert.ErrorIs(t, err, relaystore.ErrBuildingQueryFailed)
		assert.ErrorIs(t, err, relaystore.ErrInvalidEventID)
	})
}

func Test_WithTableName_ChangesCompiledTable(t *testing.T) {
	store := newCompileOnlyStore(t, postgresengine.WithTableName("relay_events"))

	query, err := store.CompileQuery(relaystore.Filters{{}})
	require.NoError(t, err)

	assert.Contains(t, query.SQL(), `FROM "relay_events"`)
	assert.NotContains(t, query.SQL(), `FROM "events"`)
}
