package environment

import (
	"fmt"
	"strings"
)

// Environment is the deployment context a record targets. Stored and
// transmitted as 1/2/3 per the wire contract.
type Environment int

const (
	Prod Environment = 1
	QA   Environment = 2
	Test Environment = 3
)

func (e Environment) IsValid() bool {
	return e >= Prod && e <= Test
}

func (e Environment) String() string {
	switch e {
	case Prod:
		return "prod"
	case QA:
		return "qa"
	case Test:
		return "test"
	default:
		return fmt.Sprintf("environment(%d)", int(e))
	}
}

func Parse(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "prod", "1":
		return Prod, nil
	case "qa", "2":
		return QA, nil
	case "test", "3":
		return Test, nil
	default:
		return 0, fmt.Errorf("unknown environment %q", value)
	}
}

func All() []Environment {
	return []Environment{Prod, QA, Test}
}
