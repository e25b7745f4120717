package ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// classifyArgument builds one CallArgument record for a single argument
// expression node, reusing the typing scheme call arguments, return
// expressions, and yield expressions all share.
func (w *Walker) classifyArgument(owner string, index int, n *sitter.Node) CallArgument {
	arg := CallArgument{OwnerID: owner, Index: index, Pos: w.pos(n)}
	switch n.Type() {
	case "string", "template_string", "number", "true", "false", "null", "undefined", "regex":
		w.recordLiteral(n)
		arg.Kind = ArgLiteral
		arg.Name = w.text(n)
	case "identifier":
		arg.Kind = ArgVariable
		arg.Name = w.text(n)
	case "function_expression", "generator_function", "arrow_function":
		arg.Kind = ArgFunction
		arg.Name = w.text(n)
	case "call_expression":
		arg.Kind = ArgCall
		arg.Name = w.text(n)
	case "object":
		arg.Kind = ArgObjectLiteral
		arg.Name = w.text(n)
	case "array":
		arg.Kind = ArgArrayLiteral
		arg.Name = w.text(n)
	case "member_expression":
		arg.Kind = ArgExpression
		arg.Name = w.text(n)
		if obj := n.ChildByFieldName("object"); obj != nil && obj.Type() == "this" {
			arg.IsThisMember = true
			arg.MemberObject = "this"
			if prop := n.ChildByFieldName("property"); prop != nil {
				arg.MemberProp = w.text(prop)
			}
		}
	default:
		arg.Kind = ArgExpression
		arg.Name = w.text(n)
	}
	// Recurse so a callback's body, a nested call's own call site, or an
	// inline object/array literal's contents still get walked — the
	// CallArgument record above only classifies the argument's shape.
	w.walk(n)
	return arg
}

func (w *Walker) collectArguments(owner string, argsNode *sitter.Node) []CallArgument {
	if argsNode == nil {
		return nil
	}
	var out []CallArgument
	idx := 0
	for i := 0; i < int(argsNode.NamedChildCount()); i++ {
		arg := w.classifyArgument(owner, idx, argsNode.NamedChild(i))
		out = append(out, arg)
		w.coll.CallArguments = append(w.coll.CallArguments, arg)
		idx++
	}
	return out
}

// handleCall covers bare calls and member-calls.
// Object.assign(target, …sources) and array mutation methods
// (push/unshift/splice) are recognized here and recorded as mutations
// instead of plain calls/method calls.
func (w *Walker) handleCall(n *sitter.Node) {
	fnNode := n.ChildByFieldName("function")
	argsNode := n.ChildByFieldName("arguments")
	if fnNode == nil {
		return
	}

	if fnNode.Type() == "member_expression" {
		object := fnNode.ChildByFieldName("object")
		property := fnNode.ChildByFieldName("property")
		objectName := w.text(object)
		method := w.text(property)

		if objectName == "Object" && method == "assign" && argsNode != nil && argsNode.NamedChildCount() > 0 {
			w.handleObjectAssign(n, argsNode)
			w.walk(object)
			return
		}
		if IsArrayMutationMethod(method) {
			w.handleArrayMutation(n, object, method, argsNode)
			w.walk(object)
			return
		}

		id := w.legacyID("METHOD_CALL", objectName+"."+method, n)
		isThis := object != nil && object.Type() == "this"
		className := ""
		if isThis {
			className = w.currentClassName
		}
		mc := MethodCall{
			ID:        id,
			Object:    objectName,
			Method:    method,
			IsThis:    isThis,
			ClassName: className,
			ScopeID:   w.ctx().ScopePath,
			Pos:       w.pos(n),
		}
		args := w.collectArguments(id, argsNode)
		mc.ArgCount = len(args)
		w.coll.MethodCalls = append(w.coll.MethodCalls, mc)

		switch method {
		case "then":
			w.coll.PromiseResolutions = append(w.coll.PromiseResolutions, PromiseResolution{ID: id, ScopeID: mc.ScopeID, Pos: mc.Pos})
		case "catch":
			w.coll.PromiseRejections = append(w.coll.PromiseRejections, PromiseRejection{ID: id, ScopeID: mc.ScopeID, Pos: mc.Pos})
		}

		w.walk(object)
		return
	}

	callee := w.text(fnNode)
	id := w.legacyID("CALL_SITE", callee, n)
	cs := CallSite{ID: id, Callee: callee, ScopeID: w.ctx().ScopePath, Pos: w.pos(n)}
	args := w.collectArguments(id, argsNode)
	cs.ArgCount = len(args)
	w.coll.CallSites = append(w.coll.CallSites, cs)

	if isHTTPCallee(callee) {
		w.coll.HTTPRequests = append(w.coll.HTTPRequests, HTTPRequest{
			ID:      w.legacyID("http:request", callee, n),
			Callee:  callee,
			ScopeID: cs.ScopeID,
			Pos:     cs.Pos,
		})
	}

	if fnNode.Type() != "identifier" {
		w.walk(fnNode)
	}
}

func isHTTPCallee(callee string) bool {
	switch callee {
	case "fetch":
		return true
	default:
		return false
	}
}

func (w *Walker) handleObjectAssign(n, argsNode *sitter.Node) {
	target := argsNode.NamedChild(0)
	targetName := w.text(target)
	id := w.legacyID("OBJECT_MUTATION", targetName+".assign", n)
	var sources []CallArgument
	for i := 1; i < int(argsNode.NamedChildCount()); i++ {
		sources = append(sources, w.classifyArgument(id, i-1, argsNode.NamedChild(i)))
	}
	w.coll.ObjectMutations = append(w.coll.ObjectMutations, ObjectMutation{
		ID:             id,
		BaseObjectName: targetName,
		IsAssign:       true,
		Sources:        sources,
		ScopeID:        w.ctx().ScopePath,
		Pos:            w.pos(n),
	})
}

func (w *Walker) handleArrayMutation(n, object *sitter.Node, method string, argsNode *sitter.Node) {
	baseName := w.text(object)
	id := w.legacyID("ARRAY_MUTATION", baseName+"."+method, n)
	var args []CallArgument
	if argsNode != nil {
		start := 0
		if method == "splice" {
			start = 2 // splice's first two args (start, deleteCount) are not value flows
		}
		for i := start; i < int(argsNode.NamedChildCount()); i++ {
			args = append(args, w.classifyArgument(id, i-start, argsNode.NamedChild(i)))
		}
	}
	w.coll.ArrayMutations = append(w.coll.ArrayMutations, ArrayMutation{
		ID:             id,
		BaseObjectName: baseName,
		Method:         method,
		Args:           args,
		ScopeID:        w.ctx().ScopePath,
		Pos:            w.pos(n),
	})
}

func (w *Walker) handleNewExpression(n *sitter.Node) {
	calleeNode := n.ChildByFieldName("constructor")
	argsNode := n.ChildByFieldName("arguments")
	callee := w.text(calleeNode)
	id := w.legacyID("CONSTRUCTOR_CALL", callee, n)
	w.coll.ConstructorCalls = append(w.coll.ConstructorCalls, ConstructorCall{
		ID:      id,
		Callee:  callee,
		ScopeID: w.ctx().ScopePath,
		Pos:     w.pos(n),
	})
	w.collectArguments(id, argsNode)
	if calleeNode != nil && calleeNode.Type() != "identifier" {
		w.walk(calleeNode)
	}
}

func (w *Walker) handleUpdateExpression(n *sitter.Node) {
	argument := n.ChildByFieldName("argument")
	operator := ""
	isPrefix := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "++" || c.Type() == "--" {
			operator = c.Type()
			isPrefix = i == 0
		}
	}
	targetName := w.text(argument)
	isThisProp := false
	className := ""
	if argument != nil && argument.Type() == "member_expression" {
		if obj := argument.ChildByFieldName("object"); obj != nil && obj.Type() == "this" {
			isThisProp = true
			className = w.currentClassName
		}
	}
	w.coll.UpdateExpressions = append(w.coll.UpdateExpressions, UpdateExpression{
		ID:         w.legacyID("UPDATE_EXPRESSION", targetName, n),
		TargetName: targetName,
		IsThisProp: isThisProp,
		ClassName:  className,
		Operator:   operator,
		IsPrefix:   isPrefix,
		ScopeID:    w.ctx().ScopePath,
		Pos:        w.pos(n),
	})
}
