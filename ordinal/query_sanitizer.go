/*
 * Copyright 2026 The OrdainSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ordinal

import (
	"bytes"
	"database/sql"
	"regexp"
	"strings"
	"sync"

	"github.com/CovenantSQL/sqlparser"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/OrdainSQL/OrdainSQL/conf"
	"github.com/OrdainSQL/OrdainSQL/types"
	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

const objectName = `([A-Za-z_][A-Za-z0-9_]*)`

var (
	txControlPattern       = regexp.MustCompile(`(?i)^\s*(?:begin|commit|rollback)\b`)
	showTablesPattern      = regexp.MustCompile(`(?i)^\s*show\s+tables\s*$`)
	showCreateTablePattern = regexp.MustCompile(`(?i)^\s*show\s+create\s+table\s+` + objectName + `\s*$`)
	showTablePattern       = regexp.MustCompile(`(?i)^\s*(?:show\s+table|describe|desc)\s+` + objectName + `\s*$`)
	showIndexPattern       = regexp.MustCompile(`(?i)^\s*show\s+index(?:es)?\s+from\s+(?:table\s+)?` + objectName + `\s*$`)
	ddlPattern             = regexp.MustCompile(`(?i)^\s*(?:create|drop|alter)\b`)
	ddlObjectPattern       = regexp.MustCompile(`(?i)^\s*(?:create|drop|alter)\s+(?:unique\s+)?(?:temp\s+|temporary\s+)?(?:table|index|view|trigger)\s+(?:if\s+(?:not\s+)?exists\s+)?` + objectName)
	renamePattern          = regexp.MustCompile(`(?i)\brename\s+to\s+` + objectName)

	sanitizeFunctionMap = map[string]map[string]bool{
		"load_extension": nil,
		"unlikely":       nil,
		"likelihood":     nil,
		"likely":         nil,
		"affinity":       nil,
		"typeof":         nil,
		"random":         nil,
		"randomblob":     nil,
		"unknown":        nil,
		"date": {
			"now":       true,
			"localtime": true,
		},
		"time": {
			"now":       true,
			"localtime": true,
		},
		"datetime": {
			"now":       true,
			"localtime": true,
		},
		"julianday": {
			"now":       true,
			"localtime": true,
		},
		"strftime": {
			"now":       true,
			"localtime": true,
		},

		// all sqlite functions is already ignored, including
		//"sqlite_offset":             nil,
		//"sqlite_version":            nil,
		//"sqlite_source_id":          nil,
		//"sqlite_log":                nil,
		//"sqlite_compileoption_used": nil,
		//"sqlite_rename_table":       nil,
		//"sqlite_rename_trigger":     nil,
		//"sqlite_rename_parent":      nil,
		//"sqlite_record":             nil,
	}

	sanitizeCacheHitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordainsql",
		Subsystem: "sanitizer",
		Name:      "cache_hit_total",
		Help:      "Total number of sanitize cache hits.",
	})
	sanitizeCacheMissCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordainsql",
		Subsystem: "sanitizer",
		Name:      "cache_miss_total",
		Help:      "Total number of sanitize cache misses.",
	})

	sanitizeCacheOnce sync.Once
	sanitizeCache     *lru.Cache
)

func init() {
	prometheus.MustRegister(sanitizeCacheHitCounter, sanitizeCacheMissCounter)
}

// sanitizeResult is the cached outcome of sanitizing a single pattern. Sanitizing is pure in
// the pattern, so the triple can be memoized while args are converted on every call.
type sanitizeResult struct {
	containsDDL bool
	query       string
	err         error
}

func getSanitizeCache() *lru.Cache {
	sanitizeCacheOnce.Do(func() {
		var size = conf.DefaultSanitizeCacheSize
		if conf.GConf != nil && conf.GConf.SanitizeCacheSize > 0 {
			size = conf.GConf.SanitizeCacheSize
		}
		var c, err = lru.New(size)
		if err != nil {
			log.WithError(err).Fatal("failed to create sanitize cache")
		}
		sanitizeCache = c
	})
	return sanitizeCache
}

func buildNamedArgs(args []types.NamedArg) (ifs []interface{}) {
	ifs = make([]interface{}, len(args))
	for i, v := range args {
		ifs[i] = sql.NamedArg{
			Name:  v.Name,
			Value: v.Value,
		}
	}
	return
}

func convertQueryAndBuildArgs(pattern string, args []types.NamedArg) (containsDDL bool, p string, ifs []interface{}, err error) {
	// Transaction control statements pass through to the underlying storage untouched
	if txControlPattern.MatchString(pattern) {
		return false, pattern, buildNamedArgs(args), nil
	}

	var cache = getSanitizeCache()
	if v, ok := cache.Get(pattern); ok {
		sanitizeCacheHitCounter.Inc()
		var r = v.(*sanitizeResult)
		if r.err != nil {
			err = r.err
			return
		}
		return r.containsDDL, r.query, buildNamedArgs(args), nil
	}
	sanitizeCacheMissCounter.Inc()

	containsDDL, p, err = sanitizePattern(pattern)
	cache.Add(pattern, &sanitizeResult{containsDDL: containsDDL, query: p, err: err})
	if err != nil {
		return
	}
	ifs = buildNamedArgs(args)
	return
}

func sanitizePattern(pattern string) (containsDDL bool, p string, err error) {
	var (
		parts       = strings.Split(pattern, ";")
		resultParts = make([]string, 0, len(parts))
	)
	for _, part := range parts {
		var query = strings.TrimSpace(part)
		if query == "" {
			continue
		}

		// String-pattern phase: translate SHOW/DESC forms and flag DDL keywords before any
		// structured parse attempt
		var translated string
		if translated, err = translateByPattern(query); err != nil {
			return
		}
		if translated != "" {
			log.WithFields(log.Fields{
				"from": query,
				"to":   translated,
			}).Debug("query translated")
			resultParts = append(resultParts, translated)
			continue
		}
		var isDDL = ddlPattern.MatchString(query)
		if isDDL {
			containsDDL = true
			if err = checkDDLObjectNames(query); err != nil {
				return
			}
		}

		// Structured parse phase
		var (
			stmt     sqlparser.Statement
			parseErr error
		)
		if stmt, parseErr = sqlparser.Parse(query); parseErr != nil {
			if isDDL {
				err = errors.Wrapf(ErrInvalidRequest, "parse sql failed: %v", parseErr)
				return
			}
			if err = checkStatefulFunctions(query); err != nil {
				return
			}
			log.WithError(parseErr).WithField("query", query).Debug(
				"failed to parse query, passing through")
			resultParts = append(resultParts, query)
			continue
		}

		walkNodes := []sqlparser.SQLNode{stmt}

		switch s := stmt.(type) {
		case *sqlparser.Show:
			if s.OnTable.Name.String() != "" {
				if err = checkTableName(s.OnTable.Name.String()); err != nil {
					return
				}
			}
			if t := translateShowStatement(s); t != "" {
				log.WithFields(log.Fields{
					"from": query,
					"to":   t,
				}).Debug("query translated")
				query = t
			}
		case *sqlparser.DDL:
			containsDDL = true
			// Check for invalid table names
			if err = checkTableName(s.NewName.Name.String()); err != nil {
				return
			}
			if err = checkTableName(s.Table.Name.String()); err != nil {
				return
			}
			if s.TableSpec != nil {
				// walk table default values for invalid stateful expressions
				for _, c := range s.TableSpec.Columns {
					if c == nil || c.Type.Default == nil {
						continue
					}

					walkNodes = append(walkNodes, c.Type.Default)
				}
			}
		}

		// scan query and test if there is any stateful query logic like time expression or
		// random function
		if err = walkStatefulNodes(walkNodes); err != nil {
			err = errors.Wrapf(err, "parse sql failed")
			return
		}

		resultParts = append(resultParts, query)
	}

	p = strings.Join(resultParts, "; ")
	return
}

// translateByPattern matches the MySQL-style introspection forms against the raw statement
// text. Statements of other shapes return empty and fall through to the structured parse.
func translateByPattern(query string) (translated string, err error) {
	if showTablesPattern.MatchString(query) {
		translated = `SELECT name FROM sqlite_master WHERE type = "table" AND name NOT LIKE "sqlite%"`
		return
	}
	if m := showCreateTablePattern.FindStringSubmatch(query); m != nil {
		if err = checkTableName(m[1]); err != nil {
			return
		}
		translated = `SELECT "sql" FROM sqlite_master WHERE type = "table" AND tbl_name = "` + m[1] + `"`
		return
	}
	if m := showTablePattern.FindStringSubmatch(query); m != nil {
		if err = checkTableName(m[1]); err != nil {
			return
		}
		translated = "PRAGMA table_info(" + m[1] + ")"
		return
	}
	if m := showIndexPattern.FindStringSubmatch(query); m != nil {
		if err = checkTableName(m[1]); err != nil {
			return
		}
		translated = `SELECT name FROM sqlite_master WHERE type = "index" AND tbl_name = "` + m[1] + `"`
		return
	}
	return
}

// translateShowStatement translates MySQL-style SHOW statements to SQLite equivalents.
func translateShowStatement(stmt *sqlparser.Show) string {
	switch strings.ToLower(stmt.Type) {
	case "table":
		if stmt.ShowCreate {
			if stmt.OnTable.Name.String() != "" {
				return `SELECT "sql" FROM sqlite_master WHERE type = "table" AND tbl_name = "` +
					stmt.OnTable.Name.String() + `"`
			}
		} else if stmt.OnTable.Name.String() != "" {
			return "PRAGMA table_info(" + stmt.OnTable.Name.String() + ")"
		}
	case "index":
		if stmt.OnTable.Name.String() != "" {
			return `SELECT name FROM sqlite_master WHERE type = "index" AND tbl_name = "` +
				stmt.OnTable.Name.String() + `"`
		}
	case "tables":
		return `SELECT name FROM sqlite_master WHERE type = "table" AND name NOT LIKE "sqlite%"`
	}
	return ""
}

func checkTableName(name string) (err error) {
	if strings.HasPrefix(strings.ToLower(name), "sqlite") {
		err = errors.Wrapf(ErrInvalidTableName, "%s", name)
	}
	return
}

func checkDDLObjectNames(query string) (err error) {
	if m := ddlObjectPattern.FindStringSubmatch(query); m != nil {
		if err = checkTableName(m[1]); err != nil {
			return
		}
	}
	if m := renamePattern.FindStringSubmatch(query); m != nil {
		if err = checkTableName(m[1]); err != nil {
			return
		}
	}
	return
}

func walkStatefulNodes(walkNodes []sqlparser.SQLNode) (err error) {
	return sqlparser.Walk(func(node sqlparser.SQLNode) (kontinue bool, err error) {
		switch n := node.(type) {
		case *sqlparser.SQLVal:
			if n.Type == sqlparser.ValArg &&
				(bytes.EqualFold([]byte("CURRENT_TIMESTAMP"), n.Val) ||
					bytes.EqualFold([]byte("CURRENT_DATE"), n.Val) ||
					bytes.EqualFold([]byte("CURRENT_TIME"), n.Val)) {
				// current_timestamp literal in default expression
				err = errors.Wrapf(ErrStatefulQueryParts, "DEFAULT %s not supported",
					strings.ToUpper(string(n.Val)))
				return
			}
		case *sqlparser.TimeExpr:
			tb := sqlparser.NewTrackedBuffer(nil)
			err = errors.Wrapf(ErrStatefulQueryParts, "time expression %s not supported",
				tb.WriteNode(n).String())
			return
		case *sqlparser.FuncExpr:
			if strings.HasPrefix(n.Name.Lowered(), "sqlite") {
				tb := sqlparser.NewTrackedBuffer(nil)
				err = errors.Wrapf(ErrStatefulQueryParts, "function call %s not supported",
					tb.WriteNode(n).String())
				return
			}
			if sanitizeArgs, ok := sanitizeFunctionMap[n.Name.Lowered()]; ok {
				// need to sanitize this function
				tb := sqlparser.NewTrackedBuffer(nil)
				sanitizeErr := errors.Wrapf(ErrStatefulQueryParts, "stateful function call %s not supported",
					tb.WriteNode(n).String())

				if sanitizeArgs == nil {
					err = sanitizeErr
					return
				}

				err = sqlparser.Walk(func(node sqlparser.SQLNode) (kontinue bool, walkErr error) {
					if v, ok := node.(*sqlparser.SQLVal); ok {
						if v.Type == sqlparser.StrVal {
							argStr := strings.ToLower(string(v.Val))

							if sanitizeArgs[argStr] {
								walkErr = sanitizeErr
							}
							return
						}
					}
					return true, nil
				})

				return
			}
		}
		return true, nil
	}, walkNodes...)
}

// checkStatefulFunctions checks for disallowed stateful functions in an unparseable statement.
func checkStatefulFunctions(query string) error {
	lower := strings.ToLower(query)

	// Check for random functions
	if strings.Contains(lower, "random(") || strings.Contains(lower, "randomblob(") {
		return errors.Wrap(ErrStatefulQueryParts, "random function not supported")
	}

	// Check for time expressions
	if strings.Contains(lower, "current_timestamp") {
		return errors.Wrap(ErrStatefulQueryParts, "CURRENT_TIMESTAMP not supported")
	}
	if strings.Contains(lower, "current_date") || strings.Contains(lower, "current_time") {
		return errors.Wrap(ErrStatefulQueryParts, "time expression not supported")
	}

	// Check for sqlite functions
	if strings.Contains(lower, "sqlite_") {
		return errors.Wrap(ErrStatefulQueryParts, "sqlite internal functions not supported")
	}

	// Check for date/time functions with 'now'
	for funcName, args := range sanitizeFunctionMap {
		if args != nil && strings.Contains(lower, funcName+"(") {
			for arg := range args {
				if strings.Contains(lower, "'"+arg+"'") {
					return errors.Wrapf(ErrStatefulQueryParts, "stateful function %s with %s not supported", funcName, arg)
				}
			}
		}
	}

	return nil
}
