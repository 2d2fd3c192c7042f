// Package model declares the network topologies used for space group
// classification and the contract of the external training collaborator.
//
// A Spec is a plain description: layer kinds, sizes and the resulting tensor
// shapes. Training and inference run elsewhere behind the Trainer and
// Predictor interfaces; Evaluate turns predictions into accuracy and a
// confusion matrix.
//
//	spec, err := model.New(model.DeepXRD, len(ds.Classes))
//	cfg := model.DefaultTrainConfig(ds.Encoding)
//	err = trainer.Train(ctx, spec, cfg, ds.Train, ds.Test)
//	eval, err := model.Evaluate(ctx, trainer, spec, ds.Test)
package model
