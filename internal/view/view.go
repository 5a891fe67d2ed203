// Package view builds the read pipelines behind every list and detail
// endpoint. Builders only describe work; repositories execute the result
// against the store, optionally through the pagination engine.
//
// Joined users are always projected through an allow-list so password hashes
// and refresh tokens never leave the users collection.
package view

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	ds "vidtube/internal/docstore"
	"vidtube/internal/model"
)

var (
	ownerFields = []string{"userName", "fullName", "avatar"}
	cardFields  = []string{"title", "description", "thumbnail", "duration", "views", "isPublished", "createdAt", "owner"}
)

// ownerLookup joins the owner user of localField into as, as a one-element
// array. Callers collapse it with First.
func ownerLookup(localField, as string) ds.Lookup {
	return ds.Lookup{
		From:         model.CollectionUsers,
		LocalField:   localField,
		ForeignField: "_id",
		As:           as,
		Pipeline:     ds.Pipeline{ds.Project{Fields: ownerFields}},
	}
}

// likesLookup joins the likes of one target kind into "likes".
func likesLookup(kind model.LikeTarget) ds.Lookup {
	return ds.Lookup{
		From:         model.CollectionLikes,
		LocalField:   "_id",
		ForeignField: "targetId",
		As:           "likes",
		Pipeline:     ds.Pipeline{ds.Match{Cond: ds.Eq("targetKind", string(kind))}},
	}
}

// likeCounters derives likesCount and isLiked from a "likes" array.
func likeCounters(viewerID bson.ObjectID) []ds.Assign {
	return []ds.Assign{
		ds.Set("likesCount", ds.Size(ds.Field("likes"))),
		ds.Set("isLiked", ds.IsIn(ds.Value(viewerID), ds.Field("likes.likedBy"))),
	}
}

// videoCardStages joins and reshapes the owner of a video into a card.
func videoCardStages() ds.Pipeline {
	return ds.Pipeline{
		ownerLookup("owner", "owner"),
		ds.AddFields{Fields: []ds.Assign{ds.Set("owner", ds.First(ds.Field("owner")))}},
		ds.Project{Fields: cardFields},
	}
}
