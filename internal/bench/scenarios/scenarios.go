package scenarios

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trustsla/cloudsla-bench/internal/bench/contracts"
	"github.com/trustsla/cloudsla-bench/internal/bench/execution"
)

// Fixed scenario parameters, carried over from the deployments the
// harness is benchmarked against.
const (
	testFile   = "test.pdf"
	testURL    = "www.test.com"
	testDigest = "0x9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	secondFile   = "test2.pdf"
	secondDigest = "0x1f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	thirdFile   = "test3.pdf"
	thirdURL    = "www.test3.com"
	thirdDigest = "0x2f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	corruptedDigest = "0x4f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
)

// CreationActivation creates a CloudSLA child contract through the
// factory and activates it with the client's deposit. It returns the
// agreement address the factory assigned to the client.
func (r *Runner) CreationActivation(ctx context.Context) (common.Address, bool) {
	var statuses []uint64

	statuses = append(statuses, r.step(ctx, r.factory, RoleProvider, nil, contracts.MethodCreateChild,
		r.oracle.Address,
		r.accounts[RoleClient],
		r.price,
		r.validity,
		big1,
		big1,
	))

	results, err := r.factory.Call(ctx, r.backend, contracts.MethodGetSmartContractAddress, r.accounts[RoleClient])
	if err != nil || len(results) != 1 {
		r.logger.Debugf("Failed to resolve agreement address: %v", err)
		return common.Address{}, false
	}
	cloudAddress, ok := results[0].(common.Address)
	if !ok || cloudAddress == (common.Address{}) {
		r.logger.Debugf("Factory returned no agreement address for %s", r.accounts[RoleClient].Hex())
		return common.Address{}, false
	}

	sla := r.cloudSLA.At(cloudAddress)
	statuses = append(statuses, r.step(ctx, sla, RoleClient, r.price, contracts.MethodDeposit))

	allOK := execution.CheckStatuses(statuses)
	if allOK {
		r.logger.Debugf("CloudSLA creation and activation: OK, address %s", cloudAddress.Hex())
	}
	return cloudAddress, allOK
}

// uploadSequence runs the three-step upload handshake: the client
// requests with a challenge over the digest, the provider acks the
// request and then acks the transfer with the digest itself.
func (r *Runner) uploadSequence(ctx context.Context, sla *contracts.Contract, filepath string, digest common.Hash) bool {
	challenge := contracts.Challenge(digest)

	statuses := []uint64{
		r.step(ctx, sla, RoleClient, nil, contracts.MethodUploadRequest, filepath, challenge),
		r.step(ctx, sla, RoleProvider, nil, contracts.MethodUploadRequestAck, filepath),
		r.step(ctx, sla, RoleProvider, nil, contracts.MethodUploadTransferAck, filepath, digest),
	}
	return execution.CheckStatuses(statuses)
}

// readSequence runs the client read request and the provider ack
// carrying the retrieval URL.
func (r *Runner) readSequence(ctx context.Context, sla *contracts.Contract, filepath, url string) bool {
	statuses := []uint64{
		r.step(ctx, sla, RoleClient, nil, contracts.MethodReadRequest, filepath),
		r.step(ctx, sla, RoleProvider, nil, contracts.MethodReadRequestAck, filepath, url),
	}
	return execution.CheckStatuses(statuses)
}

// fileSequence runs the integrity check: the client requests the file
// hash, the oracle operator stores the digest for the URL and the
// client triggers the on-chain comparison.
func (r *Runner) fileSequence(ctx context.Context, sla *contracts.Contract, filepath, url string, digest common.Hash) bool {
	statuses := []uint64{
		r.step(ctx, sla, RoleClient, nil, contracts.MethodFileHashRequest, filepath),
		r.step(ctx, r.oracle, RoleOracle, nil, contracts.MethodDigestStore, url, digest),
		r.step(ctx, sla, RoleClient, nil, contracts.MethodFileCheck, filepath),
	}
	return execution.CheckStatuses(statuses)
}

// Upload uploads the primary test file.
func (r *Runner) Upload(ctx context.Context, cloudAddress common.Address) bool {
	ok := r.uploadSequence(ctx, r.cloudSLA.At(cloudAddress), testFile, common.HexToHash(testDigest))
	if ok {
		r.logger.Debugf("Upload: OK")
	}
	return ok
}

// Read reads the primary test file back.
func (r *Runner) Read(ctx context.Context, cloudAddress common.Address) bool {
	ok := r.readSequence(ctx, r.cloudSLA.At(cloudAddress), testFile, testURL)
	if ok {
		r.logger.Debugf("Read: OK")
	}
	return ok
}

// Delete removes the primary test file: client request, provider
// confirmation.
func (r *Runner) Delete(ctx context.Context, cloudAddress common.Address) bool {
	sla := r.cloudSLA.At(cloudAddress)

	statuses := []uint64{
		r.step(ctx, sla, RoleClient, nil, contracts.MethodDeleteRequest, testFile),
		r.step(ctx, sla, RoleProvider, nil, contracts.MethodDelete, testFile),
	}

	ok := execution.CheckStatuses(statuses)
	if ok {
		r.logger.Debugf("Delete: OK")
	}
	return ok
}

// FileCheckUndeletedFile verifies the integrity of a file that is
// still stored.
func (r *Runner) FileCheckUndeletedFile(ctx context.Context, cloudAddress common.Address) bool {
	ok := r.fileSequence(ctx, r.cloudSLA.At(cloudAddress), testFile, testURL, common.HexToHash(testDigest))
	if ok {
		r.logger.Debugf("File check for undeleted file: OK")
	}
	return ok
}

// AnotherFileUpload uploads a second file.
func (r *Runner) AnotherFileUpload(ctx context.Context, cloudAddress common.Address) bool {
	ok := r.uploadSequence(ctx, r.cloudSLA.At(cloudAddress), secondFile, common.HexToHash(secondDigest))
	if ok {
		r.logger.Debugf("Another file upload: OK")
	}
	return ok
}

// ReadDenyLostFileCheck has the provider deny a read for a file it
// lost.
func (r *Runner) ReadDenyLostFileCheck(ctx context.Context, cloudAddress common.Address) bool {
	sla := r.cloudSLA.At(cloudAddress)

	statuses := []uint64{
		r.step(ctx, sla, RoleClient, nil, contracts.MethodReadRequest, secondFile),
		r.step(ctx, sla, RoleProvider, nil, contracts.MethodReadRequestDeny, secondFile),
	}

	ok := execution.CheckStatuses(statuses)
	if ok {
		r.logger.Debugf("Read deny with lost file check: OK")
	}
	return ok
}

// AnotherFileUploadRead uploads a third file and reads it back.
func (r *Runner) AnotherFileUploadRead(ctx context.Context, cloudAddress common.Address) bool {
	sla := r.cloudSLA.At(cloudAddress)

	uploadOK := r.uploadSequence(ctx, sla, thirdFile, common.HexToHash(thirdDigest))
	readOK := r.readSequence(ctx, sla, thirdFile, thirdURL)

	if uploadOK && readOK {
		r.logger.Debugf("Another file upload + read: OK")
	}
	return uploadOK && readOK
}

// CorruptedFileCheck runs the integrity check against a digest that
// does not match the stored file.
func (r *Runner) CorruptedFileCheck(ctx context.Context, cloudAddress common.Address) bool {
	ok := r.fileSequence(ctx, r.cloudSLA.At(cloudAddress), thirdFile, thirdURL, common.HexToHash(corruptedDigest))
	if ok {
		r.logger.Debugf("File check for corrupted file: OK")
	}
	return ok
}
