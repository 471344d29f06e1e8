// Package knowledge models the records held in the transport knowledge base
// and queries them from an Azure AI Search index.
//
// Transport numbers are stored base64-encoded without padding; EncodeKey and
// DecodeKey convert between the readable and stored forms. A record keeps its
// fields in the order the index returned them so that summaries are stable.
//
//	client := knowledge.NewSearchClient(endpoint, "transports", apiKey, logger)
//	records, err := client.Search(ctx, "12345678")
//	if err == nil && len(records) > 0 {
//	    fmt.Println(knowledge.Banner(records[0]))
//	}
package knowledge
