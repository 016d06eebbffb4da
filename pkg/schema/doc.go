// Package schema defines the rule-set model for conversions and its two
// validation layers.
//
// A rules document is YAML of the shape:
//
//	rules:
//	  - content: item
//	    context:
//	      model_prefix: "item_{content_id}"
//	      model_name:
//	        expression: "upper(context['model_prefix'])"
//	        default_value: UNKNOWN
//	    rules:
//	      - name: double-damage
//	        conditions:
//	          - path: damage
//	            min: 3
//	        actions:
//	          set:
//	            damage:
//	              expression: "damage * 2"
//
// Decoding preserves declaration order wherever order is a contract: context
// definitions (later entries may reference earlier ones), nested rules, and
// the entries of every action mapping.
//
// Validation happens in two passes. Decode checks structure against an
// embedded JSON schema first; a violation there is fatal to the whole
// conversion run. Everything softer (a condition without a path, an unnamed
// rule using an isolated sequence) is left to the engine, which degrades it
// to a logged skip at apply time.
package schema
