package portal

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// apiVersion is the RPC protocol version sent as the first parameter of
// every call, per the portal's calling convention.
const apiVersion = 0.1

// methodCall is the wire form of an XML-RPC request.
type methodCall struct {
	XMLName    xml.Name `xml:"methodCall"`
	MethodName string   `xml:"methodName"`
	Params     []param  `xml:"params>param"`
}

// methodResponse is the wire form of an XML-RPC reply.
type methodResponse struct {
	XMLName xml.Name `xml:"methodResponse"`
	Params  []param  `xml:"params>param"`
	Fault   *param   `xml:"fault"`
}

type param struct {
	Value value `xml:"value"`
}

// value is a single XML-RPC value. At most one typed member is set; a
// value without a type element is a bare string per the XML-RPC spec.
type value struct {
	Str      *string    `xml:"string"`
	Int      *string    `xml:"int"`
	I4       *string    `xml:"i4"`
	Double   *string    `xml:"double"`
	Boolean  *string    `xml:"boolean"`
	Struct   *xmlStruct `xml:"struct"`
	Array    *xmlArray  `xml:"array"`
	Nil      *struct{}  `xml:"nil"`
	Chardata string     `xml:",chardata"`
}

type xmlStruct struct {
	Members []xmlMember `xml:"member"`
}

type xmlMember struct {
	Name  string `xml:"name"`
	Value value  `xml:"value"`
}

type xmlArray struct {
	Values []value `xml:"data>value"`
}

// marshalCall encodes a portal method call: the protocol version first,
// then a struct of named arguments. Members are sorted so request bodies
// are reproducible.
func marshalCall(method string, args map[string]string) ([]byte, error) {
	version := strconv.FormatFloat(apiVersion, 'g', -1, 64)

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	st := &xmlStruct{Members: make([]xmlMember, 0, len(args))}
	for _, k := range keys {
		v := args[k]
		st.Members = append(st.Members, xmlMember{Name: k, Value: value{Str: &v}})
	}

	call := methodCall{
		MethodName: method,
		Params: []param{
			{Value: value{Double: &version}},
			{Value: value{Struct: st}},
		},
	}

	body, err := xml.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	return append([]byte(xml.Header), body...), nil
}

// unmarshalResponse decodes an XML-RPC reply into the portal's uniform
// envelope. Protocol-level faults come back as *Fault errors; envelope
// codes are the caller's concern.
func unmarshalResponse(data []byte) (*Response, error) {
	var resp methodResponse
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode portal response: %w", err)
	}

	if resp.Fault != nil {
		return nil, decodeFault(resp.Fault)
	}

	if len(resp.Params) != 1 {
		return nil, fmt.Errorf("portal response carries %d params, want 1", len(resp.Params))
	}

	decoded, err := resp.Params[0].Value.decode()
	if err != nil {
		return nil, err
	}

	envelope, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("portal response is %T, want struct", decoded)
	}

	code, ok := envelope["code"].(int)
	if !ok {
		return nil, fmt.Errorf("portal response has no integer code member")
	}

	out := &Response{Code: code, Value: envelope["value"]}
	if output, ok := envelope["output"].(string); ok {
		out.Output = output
	}
	return out, nil
}

func decodeFault(p *param) error {
	decoded, err := p.Value.decode()
	if err != nil {
		return fmt.Errorf("failed to decode portal fault: %w", err)
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		return fmt.Errorf("portal fault is %T, want struct", decoded)
	}

	fault := &Fault{}
	if c, ok := m["faultCode"].(int); ok {
		fault.Code = c
	}
	if s, ok := m["faultString"].(string); ok {
		fault.String = s
	}
	return fault
}

// decode converts a wire value into its Go representation: string, int,
// float64, bool, map[string]any, []any, or nil.
func (v *value) decode() (any, error) {
	switch {
	case v.Nil != nil:
		return nil, nil
	case v.Str != nil:
		return *v.Str, nil
	case v.Int != nil:
		return parseWireInt(*v.Int)
	case v.I4 != nil:
		return parseWireInt(*v.I4)
	case v.Double != nil:
		f, err := strconv.ParseFloat(strings.TrimSpace(*v.Double), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double %q: %w", *v.Double, err)
		}
		return f, nil
	case v.Boolean != nil:
		switch strings.TrimSpace(*v.Boolean) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		default:
			return nil, fmt.Errorf("invalid boolean %q", *v.Boolean)
		}
	case v.Struct != nil:
		m := make(map[string]any, len(v.Struct.Members))
		for _, member := range v.Struct.Members {
			decoded, err := member.Value.decode()
			if err != nil {
				return nil, fmt.Errorf("struct member %s: %w", member.Name, err)
			}
			m[member.Name] = decoded
		}
		return m, nil
	case v.Array != nil:
		items := make([]any, 0, len(v.Array.Values))
		for i := range v.Array.Values {
			decoded, err := v.Array.Values[i].decode()
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			items = append(items, decoded)
		}
		return items, nil
	default:
		return v.Chardata, nil
	}
}

func parseWireInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return n, nil
}
