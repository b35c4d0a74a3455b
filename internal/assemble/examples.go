package assemble

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const componentsURL = "mem:///components.json"

// exampleValue decodes a documented example as JSON, falling back to the raw
// text.
func exampleValue(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return raw
	}
	return v
}

// exampleChecker validates example values against component schemas. The
// components are compiled lazily, once.
type exampleChecker struct {
	components *openapi3.Components
	compiler   *jsonschema.Compiler
	compiled   map[string]*jsonschema.Schema
	setupErr   error
}

func newExampleChecker(components *openapi3.Components) *exampleChecker {
	return &exampleChecker{components: components, compiled: make(map[string]*jsonschema.Schema)}
}

func (c *exampleChecker) setup() error {
	if c.compiler != nil || c.setupErr != nil {
		return c.setupErr
	}
	raw, err := json.Marshal(map[string]interface{}{"components": c.components})
	if err != nil {
		c.setupErr = err
		return err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft4
	if err := compiler.AddResource(componentsURL, bytes.NewReader(raw)); err != nil {
		c.setupErr = err
		return err
	}
	c.compiler = compiler
	return nil
}

// check validates raw against the component name. A raw value that is not
// JSON is checked as a string.
func (c *exampleChecker) check(name, raw string) error {
	if c.components == nil {
		return nil
	}
	if err := c.setup(); err != nil {
		return err
	}
	sch, ok := c.compiled[name]
	if !ok {
		var err error
		sch, err = c.compiler.Compile(componentsURL + componentPrefix + name)
		if err != nil {
			return err
		}
		c.compiled[name] = sch
	}

	var v interface{}
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil || dec.More() {
		v = raw
	}
	return sch.Validate(v)
}
