// Package record holds the scraped record store: one record per database
// entry with its discretized XRD vectors and its crystallographic targets.
//
// A Store is created once through a Builder and is read-only afterwards.
// Its JSON form is the durable contract between scraping and training:
//
//	{
//	  "mp-123": {
//	    "X": {"xrd.Cu": [1800 floats], "xrd.Mo": [1800 floats]},
//	    "Y": {"spacegroup": "Fm-3m", "lattice": [a, b, c, alpha, beta, gamma]}
//	  }
//	}
package record
