package models

import "errors"

var (
	ErrInvalidSymbol      = errors.New("invalid proposition symbol")
	ErrInvalidRuleID      = errors.New("invalid rule ID")
	ErrInvalidConclusion  = errors.New("invalid rule conclusion")
	ErrNegatedConclusion  = errors.New("conclusion appears negated in rule premises")
	ErrInvalidVolume      = errors.New("invalid volume")
	ErrInvalidBar         = errors.New("invalid bar (high < low)")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrDuplicateRuleID    = errors.New("duplicate rule ID")
	ErrRuleNotFound       = errors.New("rule not found")
	ErrRuleFileNotFound   = errors.New("rules file not found")
	ErrNonHornClause      = errors.New("clause is not Horn-convertible")
	ErrEmptyClause        = errors.New("clause has no literals")
	ErrUnknownPredicate   = errors.New("unknown predicate symbol")
)
