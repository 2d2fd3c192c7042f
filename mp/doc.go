// Package mp queries the Materials Project legacy REST API for the data the
// scraper needs: entry ids of a chemical system, XRD peak lists, space groups
// and lattice parameters.
//
//	client, err := mp.NewClient(os.Getenv("MP_API_KEY"))
//	sess, err := client.Open(ctx)
//	defer sess.Close()
//	ids, err := sess.EntryIDs(ctx, []string{"Li", "Mn", "O"})
//
// Every call is a single POST to {endpoint}/query carrying the API key in the
// X-API-KEY header and the criteria and properties as form fields.
package mp
