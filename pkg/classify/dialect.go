package classify

import (
	"fmt"

	"github.com/pingcap/tidb/parser"
	_ "github.com/pingcap/tidb/parser/test_driver" // value expression driver
)

// dialectParser is the strict-mode syntax stage. It is broader than the
// sandbox engine but shallower: it never resolves names. A parser instance
// is not safe for concurrent use.
type dialectParser struct {
	p *parser.Parser
}

func newDialectParser() *dialectParser {
	return &dialectParser{p: parser.New()}
}

// check parses sql as one or more statements.
func (d *dialectParser) check(sql string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dialect parser panic: %v", r)
		}
	}()
	_, _, err = d.p.Parse(sql, "", "")
	return err
}
