package construct

import (
	"strings"

	"github.com/regger-zz/sas-translator/internal/token"
)

// sqlClauseWords end a FROM table list.
var sqlClauseWords = map[string]bool{
	"WHERE": true, "GROUP": true, "ORDER": true, "HAVING": true, "ON": true, "INNER": true,
	"LEFT": true, "RIGHT": true, "FULL": true, "CROSS": true, "NATURAL": true, "JOIN": true,
	"UNION": true, "EXCEPT": true, "INTERSECT": true, "OUTER": true, "USING": true,
}

// sqlStatement describes one statement inside PROC SQL. Table references
// after FROM and JOIN are inputs; CREATE TABLE/VIEW and INSERT INTO targets
// are outputs.
func sqlStatement(sig []token.Token) *Node {
	n := newNode(SQLStatement)
	n.Attrs[AttrSQLKeyword] = sig[0].Upper()

	body := trimSemi(sig)
	var inputs, outputs []string
	seen := map[string]bool{}
	addInput := func(name string) {
		if !seen[name] {
			seen[name] = true
			inputs = append(inputs, name)
		}
	}

	joins, subqueries := 0, 0
	for i := 0; i < len(body); i++ {
		tok := body[i]
		if tok.IsDelimiter("(") && i+1 < len(body) && body[i+1].Is(token.Keyword, "SELECT") {
			subqueries++
			continue
		}
		if !isWord(tok) {
			continue
		}
		switch tok.Upper() {
		case "JOIN":
			joins++
			if name, _ := tableName(body, i+1); name != "" {
				addInput(name)
			}
		case "FROM":
			for j := i + 1; j < len(body); {
				name, next := tableName(body, j)
				if name != "" {
					addInput(name)
				}
				next = skipAlias(body, next)
				if next >= len(body) || !body[next].IsDelimiter(",") {
					break
				}
				// Comma-separated FROM lists are implicit joins.
				joins++
				j = next + 1
			}
		case "TABLE", "VIEW":
			if i > 0 && body[i-1].Upper() == "CREATE" {
				if name, _ := tableName(body, i+1); name != "" {
					outputs = append(outputs, name)
				}
			}
		case "INTO":
			if i > 0 && body[i-1].Upper() == "INSERT" {
				if name, _ := tableName(body, i+1); name != "" {
					outputs = append(outputs, name)
				}
			}
		}
	}

	n.Attrs[AttrSQLJoins] = joins
	n.Attrs[AttrSQLSubqueries] = subqueries
	n.Attrs[AttrSQLTables] = len(inputs)
	n.Attrs[AttrSQLTokens] = len(body)
	n.Attrs[AttrInputs] = nonNil(inputs)
	n.Attrs[AttrOutputs] = nonNil(outputs)
	return n
}

// tableName reads `name` or `lib.name` at i. A parenthesized subquery is
// skipped and yields "". next is the index after the reference.
func tableName(toks []token.Token, i int) (name string, next int) {
	if i >= len(toks) {
		return "", i
	}
	if toks[i].IsDelimiter("(") {
		if end := matchParen(toks, i); end >= 0 {
			return "", end + 1
		}
		return "", len(toks)
	}
	if !isWord(toks[i]) || sqlClauseWords[toks[i].Upper()] {
		return "", i
	}
	name = toks[i].Upper()
	i++
	for i+1 < len(toks) && toks[i].Is(token.Operator, ".") && isWord(toks[i+1]) {
		name += "." + toks[i+1].Upper()
		i += 2
	}
	return normalizeDataset(name), i
}

// skipAlias steps over `AS alias` or a bare alias.
func skipAlias(toks []token.Token, i int) int {
	if i < len(toks) && toks[i].Upper() == "AS" {
		i++
	}
	if i < len(toks) && isWord(toks[i]) && !sqlClauseWords[toks[i].Upper()] && !strings.EqualFold(toks[i].Lexeme, "as") {
		i++
	}
	return i
}
