package router

import (
	"errors"
	"strings"
)

// ErrDuplicateRoute is returned when a pattern has the same structure as
// one registered earlier. The earlier route keeps the slot.
var ErrDuplicateRoute = errors.New("router: duplicate route")

// ErrInvalidPattern is returned for malformed patterns.
var ErrInvalidPattern = errors.New("router: invalid route pattern")

// Params holds values captured by :param and *catchall segments.
type Params map[string]string

// Get returns the value of the named parameter, or "".
func (p Params) Get(name string) string {
	return p[name]
}

// node is a node in the route tree. Static children beat the parameter
// child, which beats the catch-all child.
type node struct {
	segment    string
	isParam    bool
	isCatchAll bool
	paramName  string

	route *Route

	children      []*node
	paramChild    *node
	catchAllChild *node
}

func (n *node) findChild(segment string) *node {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

func (n *node) addChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node{segment: segment}
	n.children = append(n.children, child)
	return child
}

// insert adds route under its pattern. Parameter names do not take part
// in the structure: "/u/:id" and "/u/:name" collide.
func (n *node) insert(route *Route) error {
	segments := splitPath(route.Pattern)
	current := n

	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, "*"):
			if i != len(segments)-1 || len(seg) == 1 {
				return ErrInvalidPattern
			}
			if current.catchAllChild == nil {
				current.catchAllChild = &node{isCatchAll: true, paramName: seg[1:]}
			}
			current = current.catchAllChild
		case strings.HasPrefix(seg, ":"):
			if len(seg) == 1 {
				return ErrInvalidPattern
			}
			if current.paramChild == nil {
				current.paramChild = &node{isParam: true, paramName: seg[1:]}
			}
			current = current.paramChild
		default:
			current = current.addChild(seg)
		}
	}

	if current.route != nil {
		return ErrDuplicateRoute
	}
	current.route = route
	return nil
}

// match finds the route for the given segments, filling params.
func (n *node) match(segments []string, params Params) (*Route, error) {
	if len(segments) == 0 {
		if n.route != nil {
			return n.route, nil
		}
		return nil, nil
	}

	segment := segments[0]
	remaining := segments[1:]

	if child := n.findChild(segment); child != nil {
		if r, err := child.match(remaining, params); r != nil || err != nil {
			return r, err
		}
	}

	if n.paramChild != nil {
		value, err := decodeSegment(segment, false)
		if err != nil {
			return nil, err
		}
		name := n.paramChild.paramName
		params[name] = value
		if r, err := n.paramChild.match(remaining, params); r != nil || err != nil {
			return r, err
		}
		delete(params, name)
	}

	if n.catchAllChild != nil && n.catchAllChild.route != nil {
		value, err := decodeSegment(strings.Join(segments, "/"), true)
		if err != nil {
			return nil, err
		}
		params[n.catchAllChild.paramName] = value
		return n.catchAllChild.route, nil
	}

	return nil, nil
}
