package mcpserver

// BlockFormatContract describes the canonical serialized block payload
// format that LLM consumers should follow when building render_block calls.
const BlockFormatContract = `# Berkano Block Payload Format Contract

A block property value is one JSON document with three sections.

## Structure

` + "```" + `json
{
  "layout": {
    "<editorAlias>": [
      { "contentUdi": "block://element/<32 hex>", "settingsUdi": "block://element/<32 hex>" }
    ]
  },
  "contentData": [
    {
      "key": "<uuid>",
      "contentTypeKey": "<uuid>",
      "<propertyAlias>": <value>
    }
  ],
  "settingsData": [ ]
}
` + "```" + `

## Rules

1. **Editor aliases.** The layout section is keyed by the flavor's editor
   alias: ` + "`" + `Berkano.BlockList` + "`" + `, ` + "`" + `Berkano.BlockGrid` + "`" + `,
   ` + "`" + `Berkano.SingleBlock` + "`" + ` or ` + "`" + `Berkano.RichText` + "`" + `.
2. **References.** ` + "`" + `contentUdi` + "`" + ` must reference a record in
   ` + "`" + `contentData` + "`" + `; ` + "`" + `settingsUdi` + "`" + ` (optional) references
   ` + "`" + `settingsData` + "`" + `. The UDI encodes the record key as 32 hex chars
   (the UUID without dashes). Dangling references drop that layout node only.
3. **Property values** are either a bare JSON value (invariant), one tagged
   object ` + "`" + `{"value": ..., "culture": "da-DK", "segment": null}` + "`" + `, or an
   array of tagged objects for values that vary by culture/segment.
4. **Grid nodes** may additionally carry ` + "`" + `rowSpan` + "`" + `, ` + "`" + `columnSpan` + "`" + `,
   ` + "`" + `forceLeft` + "`" + `, ` + "`" + `forceRight` + "`" + ` and
   ` + "`" + `areas: [{"key": "<areaAlias>", "items": [<layout node>, ...]}]` + "`" + `
   with unbounded nesting.
5. **Block configurations** (the allow-list) come from the caller: either a
   stored data type alias or an explicit array of
   ` + "`" + `{"contentTypeKey": "<uuid>", "settingsTypeKey": "<uuid>"}` + "`" + ` objects.
   Records whose type is not configured are dropped silently.
6. Only **element** content types materialize; document types are rejected.

## Example

` + "```" + `json
{
  "layout": {
    "Berkano.BlockList": [
      { "contentUdi": "block://element/0f6f7a70c1d84f5b9d0a3c2e1b4d5e6f" }
    ]
  },
  "contentData": [
    {
      "key": "0f6f7a70-c1d8-4f5b-9d0a-3c2e1b4d5e6f",
      "contentTypeKey": "7e2f1d7a-4a5b-4c6d-8e9f-0a1b2c3d4e5f",
      "headline": "Hello",
      "body": { "value": "Hej", "culture": "da-DK" }
    }
  ],
  "settingsData": []
}
` + "```" + `
`
