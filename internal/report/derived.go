package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/casbin/govaluate"
)

// Derived is a variable computed from the other variables of a report.
// Variable names containing operators must be bracketed, e.g.
// "[Total time] * [telemetry/node-1]".
type Derived struct {
	Name       string
	Expression string
	Unit       string
}

// Evaluator computes derived variables.
type Evaluator struct {
	derived     []Derived
	expressions []*govaluate.EvaluableExpression
}

// NewEvaluator parses the expressions once.
func NewEvaluator(derived []Derived) (*Evaluator, error) {
	e := &Evaluator{derived: derived}
	functions := evaluatorFunctions()
	for _, d := range derived {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(d.Expression, functions)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expression for %s: %w", d.Name, err)
		}
		e.expressions = append(e.expressions, expr)
	}
	return e, nil
}

// Apply appends the derived variables to the report. Derived variables may
// refer to earlier ones. A variable whose inputs are missing is skipped.
func (e *Evaluator) Apply(r Report) Report {
	params := make(map[string]any, len(r.Variables))
	for _, v := range r.Variables {
		params[v.Name] = v.Value
	}
	for i, d := range e.derived {
		missing := false
		for _, name := range e.expressions[i].Vars() {
			if _, ok := params[name]; !ok {
				slog.Warn("derived variable input not found", slog.String("variable", d.Name), slog.String("input", name))
				missing = true
			}
		}
		if missing {
			continue
		}
		result, err := e.expressions[i].Evaluate(params)
		if err != nil {
			slog.Error("failed to evaluate derived variable", slog.String("variable", d.Name), slog.String("error", err.Error()))
			continue
		}
		value, ok := result.(float64)
		if !ok {
			slog.Error("derived variable is not a number", slog.String("variable", d.Name), slog.String("expression", d.Expression))
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			slog.Warn("derived variable is not finite", slog.String("variable", d.Name))
			continue
		}
		params[d.Name] = value
		r.Variables = append(r.Variables, Variable{Name: d.Name, Value: value, Unit: d.Unit})
	}
	return r
}

// evaluatorFunctions are callable from expressions
func evaluatorFunctions() map[string]govaluate.ExpressionFunction {
	toFloat := func(arg any) float64 {
		switch t := arg.(type) {
		case int:
			return float64(t)
		case float64:
			return t
		}
		return math.NaN()
	}
	functions := make(map[string]govaluate.ExpressionFunction)
	functions["max"] = func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("max expects 2 arguments, got %d", len(args))
		}
		return max(toFloat(args[0]), toFloat(args[1])), nil
	}
	functions["min"] = func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("min expects 2 arguments, got %d", len(args))
		}
		return min(toFloat(args[0]), toFloat(args[1])), nil
	}
	return functions
}
